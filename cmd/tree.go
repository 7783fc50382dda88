package cmd

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/internal/render"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

var treeUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.tree")

type treeRow struct {
	Title string        `json:"title"`
	Type  tree.NodeType `json:"type"`
	Depth int           `json:"depth"`
	State string        `json:"state,omitempty"`
	Match bool          `json:"match,omitempty"`
	Error string        `json:"error,omitempty"`
	Row   navigator.Row `json:"-"`
}

func collectRows(nav *navigator.Navigator) []treeRow {
	var rows []treeRow
	for _, r := range nav.Rows() {
		tr := treeRow{
			Title: r.Node.Title(),
			Type:  r.Node.Descriptor.Type,
			Depth: r.Depth,
			Match: r.Match,
			Row:   r,
		}
		if r.Node.IsFolder() {
			tr.State = r.State.String()
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		rows = append(rows, tr)
	}
	return rows
}

func formatRows(rows []treeRow) string {
	var b strings.Builder
	for _, r := range rows {
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", r.Depth), render.Icon(r.Row), r.Title)
		switch {
		case r.Match:
			line = theme.DefaultTheme.Highlight.Render(line)
		case r.Error != "":
			line += " " + theme.DefaultTheme.Muted.Render("("+r.Error+")")
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// expandTree loads folders down to depth and reports the ones that failed.
func expandTree(ctx context.Context, nav *navigator.Navigator, depth int) error {
	failures, err := nav.Controller().ExpandAll(ctx, depth)
	if err != nil {
		return fmt.Errorf("failed to expand tree: %w", err)
	}
	for _, f := range failures {
		treeUlog.Info("Folder failed to load").
			Field("title", f.Node.Title()).
			Field("source", f.Node.Descriptor.Source).
			Field("error", f.Err.Error()).
			Log(ctx)
	}
	nav.RefreshFilter()
	return nil
}

func NewTreeCmd(nav **navigator.Navigator) *cobra.Command {
	var (
		depth   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the fault tree",
		Long: `Load folders down to the given depth and print the tree.

Examples:
  ft tree              # Root folders and their direct children
  ft tree --depth -1   # Everything reachable
  ft tree --json       # Machine readable rows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			n := *nav
			if err := initNavigator(ctx, n); err != nil {
				return err
			}
			if err := expandTree(ctx, n, depth); err != nil {
				return err
			}

			rows := collectRows(n)
			if jsonOut {
				if rows == nil {
					rows = []treeRow{}
				}
				return outputJSON(rows)
			}
			if len(rows) == 0 {
				treeUlog.Info("Empty tree").
					Pretty("The root collection is empty").
					PrettyOnly().
					Log(ctx)
				return nil
			}
			treeUlog.Info("Fault tree").
				Field("rows", len(rows)).
				Pretty(formatRows(rows)).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 1, "levels of folders to load (-1 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output rows as JSON")

	return cmd
}
