package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"facevault/internal/devwatch"
	"facevault/internal/preflight"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show readiness of devices, binaries, and the template store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))

			if !watch {
				if !preflight.AllPassed(results) {
					return fmt.Errorf("one or more checks failed")
				}
				return nil
			}

			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			monitor := devwatch.NewMonitor(logger, func(event devwatch.Event) {
				fmt.Fprintf(out, "%s %s: %s\n", event.Kind, event.Action, event.Device)
			})
			if err := monitor.Start(ctx); err != nil {
				return err
			}
			defer monitor.Stop()

			if !monitor.Running() {
				return fmt.Errorf("hotplug monitoring unavailable")
			}
			fmt.Fprintln(out, "Watching for camera and microphone changes (ctrl-c to stop)")
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and report device hotplug events")
	return cmd
}
