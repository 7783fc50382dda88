package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
	"github.com/mattsolo1/grove-faulttree/internal/tui/browser"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/source"
)

// NewTuiCmd creates the `ft tui` command.
func NewTuiCmd(settings **config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the fault tree interactively",
		Long: `Launch an interactive Terminal User Interface for browsing the fault tree.
Folders load on demand; the search box filters the folders loaded so far.`,
		Annotations: map[string]string{AnnotationNoNavigator: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for TTY
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("TUI mode requires an interactive terminal")
			}

			s := *settings
			logger, err := s.NewLogger()
			if err != nil {
				return err
			}
			src, err := s.OpenSource()
			if err != nil {
				return fmt.Errorf("failed to open data source: %w", err)
			}
			defer source.Close(src)

			// The browser owns the renderer, so it gets its own navigator.
			r := browser.NewRenderer()
			nav := s.NewNavigator(src, logger, navigator.WithRenderer(r))

			model := browser.New(nav, r)
			p := tea.NewProgram(model, tea.WithAltScreen())

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}

			return nil
		},
	}
	return cmd
}
