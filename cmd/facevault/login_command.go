package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"facevault/internal/capture"
	"facevault/internal/services/extractor"
	"facevault/internal/session"
	"facevault/internal/templates"
	"facevault/internal/vault"
	"facevault/internal/verify"
)

func newLoginCommand(cmdCtx *commandContext) *cobra.Command {
	var retries int

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Verify face and voice, then open the user's vault",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			warnPreflight(ctx, cmd.OutOrStdout(), cfg)

			flow, err := verify.New(ctx, cfg, username,
				capture.NewCameraOpener(cfg, nil),
				capture.NewRecorder(cfg, nil),
				extractor.New(cfg), store, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			done := make(chan struct{})
			go reportVerifyEvents(out, flow.Events(), done)
			defer close(done)

			fmt.Fprintf(out, "Verifying %s. Look at the camera.\n", username)
			if err := runWithRetries(ctx, out, cmd.InOrStdin(), retries, "face check", func() error {
				return flow.VerifyFace(ctx)
			}); err != nil {
				return err
			}

			fmt.Fprintf(out, "Say the passphrase: %q\n", flow.Passphrase())
			if err := runWithRetries(ctx, out, cmd.InOrStdin(), retries, "voice check", func() error {
				return flow.VerifyVoice(ctx)
			}); err != nil {
				return err
			}

			gate := session.NewGate(cfg, logger)
			grant, err := gate.Authorize(flow)
			if err != nil {
				return err
			}
			defer func() {
				_ = grant.Revoke()
			}()

			fmt.Fprintf(out, "Welcome, %s.\n", username)
			return runVaultShell(out, cmd.InOrStdin(), vault.Open(cfg, logger), grant)
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 2, "Times to offer a retry after a recoverable check failure")
	return cmd
}

func reportVerifyEvents(out io.Writer, events <-chan verify.Event, done <-chan struct{}) {
	for {
		select {
		case event := <-events:
			switch event.State {
			case verify.FactorPassed:
				fmt.Fprintf(out, "  %s check passed (distance %.3f)\n", event.Factor, event.Distance)
			case verify.FactorFailed:
				fmt.Fprintf(out, "  %s check failed\n", event.Factor)
			}
		case <-done:
			return
		}
	}
}

// runVaultShell reads commands until quit or EOF. The grant is revoked by
// the caller when the shell returns.
func runVaultShell(out io.Writer, in io.Reader, v *vault.Vault, grant *session.Grant) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprintf(out, "%s> ", grant.Username)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "ls":
			entries, err := v.List(grant)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "vault is empty")
				continue
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Name,
					fmt.Sprintf("%d", entry.Size),
					entry.ModTime.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Bytes", "Modified"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
		case "put":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: put <path> [--force]")
				continue
			}
			overwrite := len(fields) > 2 && fields[2] == "--force"
			entry, err := v.Put(grant, fields[1], overwrite)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintf(out, "stored %s (%d bytes)\n", entry.Name, entry.Size)
		case "get":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: get <name> [dest]")
				continue
			}
			dst := "."
			if len(fields) > 2 {
				dst = fields[2]
			}
			path, err := v.Get(grant, fields[1], dst)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintf(out, "copied to %s\n", path)
		case "rm":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: rm <name>")
				continue
			}
			if err := v.Delete(grant, fields[1]); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintf(out, "removed %s\n", fields[1])
		case "help":
			fmt.Fprintln(out, "commands: ls, put <path> [--force], get <name> [dest], rm <name>, quit")
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q (try help)\n", fields[0])
		}
	}
}
