package main

import (
	"fmt"

	"eva/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root eva command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eva",
		Short: "Red Alert 2 EVA voice lines for Cursor agent hooks",
		Long: "eva plays an EVA voice line for every Cursor agent event.\n" +
			"Odd hours speak with the Allied EVA, even hours with the Soviet one.",
		Version:       fmt.Sprintf("eva %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newHookCmd(),
		newInstallCmd(),
		newUninstallCmd(),
		newStatusCmd(),
		newPlayCmd(),
		newSoundsCmd(),
		newPreviewCmd(),
	)

	return cmd
}
