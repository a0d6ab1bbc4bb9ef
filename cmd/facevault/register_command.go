package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"facevault/internal/capture"
	"facevault/internal/enroll"
	"facevault/internal/services"
	"facevault/internal/services/extractor"
	"facevault/internal/templates"
)

func newRegisterCommand(cmdCtx *commandContext) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Enroll a new user's face and voice templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := templates.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			exists, err := store.Exists(cmd.Context(), username)
			if err != nil {
				return err
			}
			if exists {
				return services.Wrap(services.ErrDuplicateUser, "cli", "register",
					fmt.Sprintf("%s is already registered", username), nil)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			warnPreflight(ctx, cmd.OutOrStdout(), cfg)

			flow, err := enroll.New(cfg, username,
				capture.NewCameraOpener(cfg, nil),
				capture.NewRecorder(cfg, nil),
				extractor.New(cfg), store, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			done := make(chan struct{})
			go reportEnrollEvents(out, flow.Events(), done)
			defer func() {
				flow.Cancel()
				close(done)
			}()

			fmt.Fprintf(out, "Registering %s. Look at the camera.\n", username)
			if err := runWithRetries(ctx, out, cmd.InOrStdin(), retries, "face capture", func() error {
				return flow.CaptureFace(ctx)
			}); err != nil {
				return err
			}

			fmt.Fprintf(out, "Say the passphrase: %q\n", cfg.Voice.Passphrase)
			if err := runWithRetries(ctx, out, cmd.InOrStdin(), retries, "voice capture", func() error {
				return flow.CaptureVoice(ctx)
			}); err != nil {
				return err
			}

			if err := flow.Commit(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Registered %s.\n", username)
			return nil
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 2, "Times to offer a retry after a recoverable capture failure")
	return cmd
}

// runWithRetries runs step and, on a retryable failure, asks the operator
// whether to try again up to the retry budget.
func runWithRetries(ctx context.Context, out io.Writer, in io.Reader, retries int, name string, step func() error) error {
	reader := bufio.NewReader(in)
	for attempt := 0; ; attempt++ {
		err := step()
		if err == nil {
			return nil
		}
		if !services.Retryable(err) || attempt >= retries {
			return err
		}
		fmt.Fprintf(out, "%s failed: %v\n", name, err)
		fmt.Fprint(out, "Retry? [y/N]: ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil || !strings.EqualFold(strings.TrimSpace(line), "y") {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func reportEnrollEvents(out io.Writer, events <-chan enroll.Event, done <-chan struct{}) {
	for {
		select {
		case event := <-events:
			switch event.State {
			case enroll.StateCapturingFace:
				if event.Captured > 0 {
					fmt.Fprintf(out, "  face sample %d/%d\n", event.Captured, event.Target)
				}
			case enroll.StateFaceCaptured:
				fmt.Fprintln(out, "  face capture complete")
			case enroll.StateVoiceCaptured:
				fmt.Fprintln(out, "  voice capture complete")
			}
		case <-done:
			return
		}
	}
}
