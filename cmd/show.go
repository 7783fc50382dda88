package cmd

import (
	"context"
	"fmt"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/internal/render"
	"github.com/mattsolo1/grove-faulttree/pkg/frontmatter"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

var showUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.show")

type showOutput struct {
	Breadcrumb string           `json:"breadcrumb"`
	Notes      []string         `json:"notes,omitempty"`
	State      string           `json:"state,omitempty"`
	Children   []string         `json:"children,omitempty"`
	Node       *tree.Descriptor `json:"node"`
}

func NewShowCmd(nav **navigator.Navigator) *cobra.Command {
	var (
		jsonOut  bool
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Show a node with its path and inherited notes",
		Long: `Resolve a node by its title path and show it. The path is either one argument
using the configured separator or one argument per title.

Examples:
  ft show "高压阀 > 阀杆泄漏"
  ft show 高压阀 阀杆泄漏
  ft show 原材料 --json
  ft show "高压阀 > 阀杆泄漏" --markdown > leak.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			n := *nav
			if err := initNavigator(ctx, n); err != nil {
				return err
			}

			node, err := n.Resolve(ctx, splitPath(args, n.Separator()))
			if err != nil {
				return err
			}
			// Activating a folder expands it.
			sel := n.Activate(ctx, node)

			if markdown {
				if !node.IsPage() {
					return fmt.Errorf("%q is a folder; only pages export as Markdown", node.Title())
				}
				fm, body := frontmatter.FromDescriptor(node.Descriptor)
				_, err := fmt.Fprint(cmd.OutOrStdout(), frontmatter.BuildContent(fm, body))
				return err
			}

			if jsonOut {
				out := showOutput{
					Breadcrumb: sel.Breadcrumb,
					Notes:      sel.Notes,
					Node:       node.Descriptor,
				}
				if node.IsFolder() {
					out.State = sel.State.String()
					for _, c := range n.Controller().Children(node) {
						out.Children = append(out.Children, c.Title())
					}
				}
				return outputJSON(out)
			}

			pretty := render.Selection(sel)
			if node.IsFolder() {
				if rows := collectRows(n); len(rows) > 0 {
					var children []treeRow
					for _, r := range rows {
						if r.Row.Node.Parent == node {
							r.Depth = 0
							children = append(children, r)
						}
					}
					if len(children) > 0 {
						pretty += "\n\n" + formatRows(children)
					}
				}
			}
			showUlog.Info("Node").
				Field("breadcrumb", sel.Breadcrumb).
				Field("state", sel.State.String()).
				Pretty(pretty).
				PrettyOnly().
				Log(ctx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Output a page as a Markdown document with frontmatter")

	return cmd
}
