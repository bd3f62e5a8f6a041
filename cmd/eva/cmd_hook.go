package main

import (
	"eva/internal/bootstrap"

	"github.com/spf13/cobra"
)

// newHookCmd creates the "eva hook" subcommand, the entry point registered
// in hooks.json. It never returns an error.
func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Handle one Cursor hook event (reads JSON on stdin)",
		Long: "Reads one hook event from stdin, plays the matching EVA voice line\n" +
			"and writes the hook decision to stdout. Always exits 0.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap.ServeHook(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), hookDevice)
			return nil
		},
	}
}
