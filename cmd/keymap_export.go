package cmd

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/internal/tui/browser"
)

var keysUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.keys")

// NewKeymapCmd prints the browser keybindings.
func NewKeymapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "keys",
		Short:       "List the keybindings of the interactive browser",
		Annotations: map[string]string{AnnotationNoNavigator: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var lines []string
			for _, b := range browser.Keys().Bindings() {
				h := b.Help()
				if h.Key == "" {
					continue
				}
				lines = append(lines, fmt.Sprintf("%-10s %s", h.Key, h.Desc))
			}
			keysUlog.Info("Browser keybindings").
				Field("count", len(lines)).
				Pretty(strings.Join(lines, "\n")).
				PrettyOnly().
				Log(context.Background())
			return nil
		},
	}
	return cmd
}
