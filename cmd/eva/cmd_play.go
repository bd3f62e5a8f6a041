package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"eva/pkg/catalog"
	"eva/pkg/faction"
	"eva/pkg/hook"
	"eva/pkg/playback"
	"eva/pkg/soundkey"

	"github.com/spf13/cobra"
)

// newPlayCmd creates the "eva play" subcommand.
func newPlayCmd() *cobra.Command {
	var (
		factionName string
		eventFile   string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "play [sound-key]",
		Short: "Play the voice line for a sound key or a hook event",
		Long: "Resolves a sound key (or, with --event, a hook payload) to a voice\n" +
			"line and plays it through the same lock and player the hook uses.\n\n" +
			"Examples:\n" +
			"  eva play sessionStart\n" +
			"  eva play stop:completed --faction soviet\n" +
			"  eva play --event payload.json",
		Args: func(cmd *cobra.Command, args []string) error {
			if eventFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			f := faction.Current(time.Now())
			if factionName != "" {
				if f, err = faction.Parse(factionName); err != nil {
					return err
				}
			}

			var key soundkey.Key
			if eventFile != "" {
				ev, err := readEvent(cmd.InOrStdin(), eventFile)
				if err != nil {
					return err
				}
				sev := ev.SoundEvent()
				key = soundkey.Resolve(sev)
				fmt.Fprintf(out, "Event:    %s (%s)\n", ev.HookEventName, soundkey.Explain(sev))
				if key == soundkey.None {
					fmt.Fprintln(out, "Sound:    none (suppressed)")
					return nil
				}
			} else {
				key = soundkey.Key(args[0])
				if _, ok := rt.Catalog.Entry(key); !ok {
					return fmt.Errorf("unknown sound key %q (see \"eva sounds\")", key)
				}
			}

			id, ok := rt.Catalog.Lookup(key, f)
			if !ok {
				fmt.Fprintf(out, "Sound:    none for %s / %s\n", key, f)
				return nil
			}
			path := catalog.Path(rt.Config.AssetsDir, f, id)
			fmt.Fprintf(out, "Sound:    %s / %s → %s\n", key, f, path)
			if dryRun {
				return nil
			}

			outcome := rt.Coordinator.Play(cmd.Context(), path)
			fmt.Fprintf(out, "Outcome:  %s\n", outcome)
			if outcome == playback.OutcomeMissing {
				return fmt.Errorf("sound file %s not found", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&factionName, "faction", "f", "", "allied or soviet (default: by current hour)")
	cmd.Flags().StringVar(&eventFile, "event", "", "hook payload JSON file to resolve (- for stdin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve only, do not play")

	return cmd
}

func readEvent(stdin io.Reader, path string) (hook.Event, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-supplied payload file
	}
	if err != nil {
		return hook.Event{}, fmt.Errorf("read event: %w", err)
	}
	ev, err := hook.ParseEvent(data)
	if err != nil {
		return hook.Event{}, err
	}
	if ev.HookEventName == "" {
		return hook.Event{}, errors.New("event has no hook_event_name")
	}
	return ev, nil
}
