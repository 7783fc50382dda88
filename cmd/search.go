package cmd

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
)

var searchUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.search")

type searchMatch struct {
	Title      string `json:"title"`
	Type       string `json:"type"`
	Breadcrumb string `json:"breadcrumb"`
}

func NewSearchCmd(nav **navigator.Navigator) *cobra.Command {
	var (
		depth    int
		showTree bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search node titles",
		Long: `Search the titles of every loaded node, case-insensitively.

Only folders loaded up to --depth are searched; deeper collections are not fetched.

Examples:
  ft search leak               # Matches with their paths
  ft search 阀 --depth -1      # Load everything first
  ft search seal --tree        # Filtered tree with ancestors`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			n := *nav
			if err := initNavigator(ctx, n); err != nil {
				return err
			}
			if err := expandTree(ctx, n, depth); err != nil {
				return err
			}

			keyword := strings.Join(args, " ")
			v := n.Filter(keyword)
			rows := collectRows(n)

			var matches []searchMatch
			for _, r := range rows {
				if !r.Match {
					continue
				}
				matches = append(matches, searchMatch{
					Title:      r.Title,
					Type:       string(r.Type),
					Breadcrumb: navigator.Breadcrumb(navigator.AncestorChain(r.Row.Node), n.Separator()),
				})
			}

			if jsonOut {
				if matches == nil {
					matches = []searchMatch{}
				}
				return outputJSON(matches)
			}
			if v.NoResults() {
				searchUlog.Info("No results").
					Field("keyword", keyword).
					Pretty(theme.DefaultTheme.Muted.Render(fmt.Sprintf("No nodes match %q", keyword))).
					PrettyOnly().
					Log(ctx)
				return nil
			}

			var pretty string
			if showTree {
				pretty = formatRows(rows)
			} else {
				lines := make([]string, len(matches))
				for i, m := range matches {
					lines[i] = m.Breadcrumb
				}
				pretty = strings.Join(lines, "\n")
			}
			searchUlog.Info("Search results").
				Field("keyword", keyword).
				Field("matches", len(matches)).
				Pretty(pretty).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 1, "levels of folders to load before searching (-1 for all)")
	cmd.Flags().BoolVar(&showTree, "tree", false, "Print the filtered tree instead of paths")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output matches as JSON")

	return cmd
}
