package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"eva/pkg/catalog"
	"eva/pkg/faction"

	"github.com/spf13/cobra"
)

// newSoundsCmd creates the "eva sounds" subcommand.
func newSoundsCmd() *cobra.Command {
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "sounds",
		Short: "List sound keys and their voice lines",
		Long: "Lists every sound key with its Allied and Soviet candidates and\n" +
			"marks files that are missing from the asset directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			missing := listSounds(out, newTheme(out), rt.Catalog, rt.Config.AssetsDir, missingOnly)
			if missing > 0 {
				fmt.Fprintf(out, "\n%d file(s) missing under %s\n", missing, rt.Config.AssetsDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing", false, "only show files missing from the asset directory")

	return cmd
}

// listSounds writes the catalog table and returns how many files are missing.
func listSounds(w io.Writer, theme Theme, cat *catalog.Catalog, assetsDir string, missingOnly bool) int {
	missing := 0
	for _, key := range cat.Keys() {
		entry, _ := cat.Entry(key)
		var lines []string
		for _, f := range faction.All {
			ids := entry.For(f)
			if len(ids) == 0 {
				if !missingOnly {
					lines = append(lines, fmt.Sprintf("    %-7s %s", f, theme.Muted.Render("(silent)")))
				}
				continue
			}
			var rendered []string
			for _, id := range ids {
				if _, err := os.Stat(catalog.Path(assetsDir, f, id)); err != nil {
					missing++
					rendered = append(rendered, theme.Error.Render(id+" (missing)"))
					continue
				}
				if !missingOnly {
					rendered = append(rendered, id)
				}
			}
			if len(rendered) > 0 {
				lines = append(lines, fmt.Sprintf("    %-7s %s", f, strings.Join(rendered, ", ")))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintln(w, theme.Warning.Render(string(key)))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
	return missing
}
