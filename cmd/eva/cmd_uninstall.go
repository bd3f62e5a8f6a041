package main

import (
	"fmt"

	"eva/pkg/config"
	"eva/pkg/install"

	"github.com/spf13/cobra"
)

// newUninstallCmd creates the "eva uninstall" subcommand.
func newUninstallCmd() *cobra.Command {
	var (
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove EVA and its hooks.json entries",
		Long: "Deletes $EVA_HOME and removes every hooks.json entry whose command\n" +
			"points into it. Hooks of other tools are left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			theme := newTheme(out)

			if !yes && !dryRun {
				ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Remove %s and EVA hooks from %s?", paths.Home, paths.HooksJSON))
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}

			progress := newProgressLog(out, theme)
			progress.Step("Uninstalling RA2 EVA Cursor Hooks...")
			rep, err := install.Uninstall(install.Options{
				Home:      paths.Home,
				HooksJSON: paths.HooksJSON,
				DryRun:    dryRun,
				Step:      progress.Step,
			})
			if err != nil {
				return fmt.Errorf("uninstall: %w", err)
			}

			if rep.RemovedHome {
				progress.Done(fmt.Sprintf("Removed: %s", paths.Home))
			} else {
				progress.Detail("Nothing installed at %s", paths.Home)
			}
			if rep.RemovedHooks > 0 {
				progress.Done(fmt.Sprintf("Removed %d hook entries from %s", rep.RemovedHooks, paths.HooksJSON))
			}
			if dryRun {
				progress.Done("Dry run: nothing was changed")
				return nil
			}
			fmt.Fprintln(out, theme.Success.Render("Uninstallation complete. Battle control terminated."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without changing anything")

	return cmd
}
