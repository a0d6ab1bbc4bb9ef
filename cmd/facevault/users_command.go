package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"facevault/internal/templates"
	"facevault/internal/vault"
)

func newUsersCommand(cmdCtx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmdCtx, cmd)
		},
	}

	usersCmd.AddCommand(newUsersListCommand(cmdCtx))
	usersCmd.AddCommand(newUsersRemoveCommand(cmdCtx))
	return usersCmd
}

func newUsersListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmdCtx, cmd)
		},
	}
}

func runUsersList(cmdCtx *commandContext, cmd *cobra.Command) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := templates.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users registered")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, []string{
			user.Username,
			fmt.Sprintf("%d", user.FaceCount),
			user.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Username", "Face samples", "Registered"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}

func newUsersRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	var keepFiles bool

	cmd := &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a user's templates and vault files",
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

			removed, err := store.Delete(cmd.Context(), username)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "%s was not registered\n", username)
				return nil
			}
			if !keepFiles {
				if err := vault.Open(cfg, logger).RemoveUserFiles(username); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Removed %s (vault files kept: %s)\n", username, yesNo(keepFiles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Keep the user's vault files on disk")
	return cmd
}
