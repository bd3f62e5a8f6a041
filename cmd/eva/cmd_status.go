package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"eva/internal/bootstrap"
	"eva/pkg/faction"
	"eva/pkg/install"
	"eva/pkg/lock"
	"eva/pkg/playback"
	"eva/pkg/protocol"
	"eva/pkg/soundkey"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newStatusCmd creates the "eva status" subcommand.
func newStatusCmd() *cobra.Command {
	var (
		showRules  bool
		showConfig bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active faction, lock state and installation",
		Long: "Displays the current hour and faction, the playback lock state,\n" +
			"the audio player, hook registration and asset counts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			theme := newTheme(out)

			if err := printStatus(out, theme, rt, time.Now()); err != nil {
				return err
			}
			if showRules {
				fmt.Fprintln(out)
				printRules(out, theme)
			}
			if showConfig {
				fmt.Fprintln(out)
				data, err := yaml.Marshal(rt.Config)
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				fmt.Fprintf(out, "%s %s\n%s", theme.Warning.Render("Config:"), rt.Paths.ConfigPath, data)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showRules, "rules", false, "list the sound resolution rules in evaluation order")
	cmd.Flags().BoolVar(&showConfig, "config", false, "print the effective configuration as YAML")

	return cmd
}

func printStatus(w io.Writer, theme Theme, rt *bootstrap.Runtime, now time.Time) error {
	fmt.Fprintf(w, "Time:     %s (hour %d)\n", now.Format("15:04"), now.Hour())
	fmt.Fprintf(w, "Faction:  %s\n", theme.Faction(faction.Current(now)))

	st, err := lock.Inspect(rt.Locker.Path(), now, rt.Config.Lock.StaleAfter.Std())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Lock:     %s  %s\n", lockState(theme, st), theme.Muted.Render(rt.Locker.Path()))

	fmt.Fprintf(w, "Player:   %s\n", describeDevice(theme, rt.Device))
	fmt.Fprintf(w, "Policy:   %s\n", rt.Coordinator.Policy())
	if rt.Config.Enabled {
		fmt.Fprintf(w, "Enabled:  %s\n", theme.Success.Render("yes"))
	} else {
		fmt.Fprintf(w, "Enabled:  %s\n", theme.Warning.Render("no (muted)"))
	}

	fmt.Fprintf(w, "Hooks:    %s  %s\n", hookState(theme, rt.Paths.HooksJSON, install.InstalledCommand(rt.Paths.Home)), theme.Muted.Render(rt.Paths.HooksJSON))

	counts, err := install.CountSounds(rt.Config.AssetsDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Assets:   %d allied, %d soviet  %s\n",
		counts[faction.Allied], counts[faction.Soviet], theme.Muted.Render(rt.Config.AssetsDir))
	return nil
}

func lockState(theme Theme, st lock.Status) string {
	switch st.State {
	case lock.StateHeld:
		return theme.Warning.Render(fmt.Sprintf("held for %s", st.Age.Round(time.Millisecond)))
	case lock.StateStale:
		return theme.Error.Render(fmt.Sprintf("stale (%s old, will be broken)", st.Age.Round(time.Second)))
	default:
		return theme.Success.Render("free")
	}
}

func describeDevice(theme Theme, d playback.Device) string {
	switch d := d.(type) {
	case *playback.Command:
		return strings.Join(d.Argv("<file>"), " ")
	default:
		return theme.Warning.Render("none (sounds disabled)")
	}
}

func hookState(theme Theme, hooksJSON, command string) string {
	data, err := os.ReadFile(hooksJSON) //nolint:gosec // path from EVA_HOOKS_JSON or the home dir
	if errors.Is(err, fs.ErrNotExist) {
		return theme.Warning.Render("not installed")
	}
	if err != nil {
		return theme.Error.Render(err.Error())
	}
	kinds, err := install.Registered(data, command)
	if err != nil {
		return theme.Error.Render(err.Error())
	}
	msg := fmt.Sprintf("%d/%d events", len(kinds), len(protocol.AllEventKinds))
	if len(kinds) == len(protocol.AllEventKinds) {
		return theme.Success.Render(msg)
	}
	return theme.Warning.Render(msg)
}

func printRules(w io.Writer, theme Theme) {
	fmt.Fprintln(w, theme.Warning.Render("Rules (first match wins, then the event kind itself):"))
	for i, r := range soundkey.Rules() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, r.Name)
	}
}
