package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eva/pkg/config"
	"eva/pkg/faction"
	"eva/pkg/install"

	"github.com/spf13/cobra"
)

// errAborted is returned when the user declines the confirmation prompt.
var errAborted = errors.New("aborted")

// newInstallCmd creates the "eva install" subcommand.
func newInstallCmd() *cobra.Command {
	var (
		assets string
		binary string
		yes    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install EVA and register it in hooks.json",
		Long: "Copies this binary and the EVA voice lines into $EVA_HOME\n" +
			"(default ~/.cursor/hooks/ra2-eva) and registers \"eva hook\" for every\n" +
			"Cursor agent event in ~/.cursor/hooks.json. Other hooks are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			if assets == "" {
				assets = defaultAssetSource()
			}

			out := cmd.OutOrStdout()
			theme := newTheme(out)
			fmt.Fprintln(out, theme.Banner.Render(theme.Title.Render("RED ALERT 2")+" EVA Cursor Hooks Installer"))
			fmt.Fprintln(out)

			if !yes && !dryRun {
				ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Install to %s and update %s?", paths.Home, paths.HooksJSON))
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}

			progress := newProgressLog(out, theme)
			rep, err := install.Install(install.Options{
				Home:      paths.Home,
				HooksJSON: paths.HooksJSON,
				Assets:    assets,
				Binary:    binary,
				DryRun:    dryRun,
				Step:      progress.Step,
			})
			if err != nil {
				return fmt.Errorf("install: %w", err)
			}

			progress.Detail("Allied EVA sounds: %s", theme.Success.Render(fmt.Sprint(rep.Sounds[faction.Allied])))
			progress.Detail("Soviet EVA sounds: %s", theme.Success.Render(fmt.Sprint(rep.Sounds[faction.Soviet])))
			progress.Detail("Hooked events: %d (replaced %d previous EVA entries)", len(rep.Events), rep.Replaced)
			fmt.Fprintln(out)

			if dryRun {
				progress.Done("Dry run: nothing was changed")
			} else {
				progress.Done("Installation complete")
			}
			fmt.Fprintf(out, "Installed to: %s\n", rep.Home)
			fmt.Fprintf(out, "Hooks config: %s\n", rep.HooksJSON)
			fmt.Fprintf(out, "Hook command: %s\n", rep.Command)
			fmt.Fprintln(out)
			printFactionSchedule(out, theme, time.Now())
			fmt.Fprintln(out)
			fmt.Fprintln(out, theme.Warning.Render("To activate:")+" restart Cursor or reload the window")
			fmt.Fprintln(out, theme.Warning.Render("To uninstall:")+" eva uninstall")
			return nil
		},
	}

	cmd.Flags().StringVar(&assets, "assets", "", "asset directory to install (default: ./assets next to the binary or in the working directory)")
	cmd.Flags().StringVar(&binary, "binary", "", "binary to install (default: the running executable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without changing anything")

	return cmd
}

// defaultAssetSource looks for an assets directory next to the running
// binary, then in the working directory.
func defaultAssetSource() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "assets")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "assets"
}

// confirm asks a yes/no question on w and reads the answer from r.
// Anything but y/yes is a no.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// printFactionSchedule explains the hour rule and shows the active faction.
func printFactionSchedule(w io.Writer, theme Theme, now time.Time) {
	fmt.Fprintln(w, theme.Warning.Render("Faction selection:"))
	fmt.Fprintf(w, "  • Odd hours (1,3,5...):  %s\n", theme.Faction(faction.Allied))
	fmt.Fprintf(w, "  • Even hours (0,2,4...): %s\n", theme.Faction(faction.Soviet))
	fmt.Fprintf(w, "Current hour: %d → %s active\n", now.Hour(), theme.Faction(faction.Current(now)))
}
