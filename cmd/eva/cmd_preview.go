package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// newPreviewCmd creates the "eva preview" subcommand.
func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Browse and play voice lines interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTTY(cmd.OutOrStdout()) {
				return errors.New("preview needs a terminal; use \"eva sounds\" instead")
			}
			rt, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			items := previewItems(rt.Catalog, rt.Config.AssetsDir)
			model := newPreviewModel(cmd.Context(), rt.Coordinator, items, newTheme(cmd.OutOrStdout()))
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run preview: %w", err)
			}
			return nil
		},
	}
}
