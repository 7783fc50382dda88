package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
	"github.com/mattsolo1/grove-faulttree/pkg/source"
)

var validateUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.validate")

func NewValidateCmd(settings **config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every collection of a dataset directory",
		Long: `Decode and validate every collection under the data directory, and check that
each folder source reference names an existing collection.`,
		Annotations: map[string]string{AnnotationNoNavigator: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *settings

			fs, err := source.NewFileSource(s.Data)
			if err != nil {
				return err
			}
			report, err := source.CheckDataset(ctx, fs)
			if err != nil {
				return err
			}

			if report.OK() {
				validateUlog.Success("Dataset valid").
					Field("collections", report.Collections).
					Field("nodes", report.Nodes).
					Pretty(fmt.Sprintf("%d collections, %d nodes, no problems found", report.Collections, report.Nodes)).
					PrettyOnly().
					Log(ctx)
				return nil
			}

			var lines []string
			ids := make([]string, 0, len(report.Invalid))
			for id := range report.Invalid {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				lines = append(lines, fmt.Sprintf("invalid   %s: %v", id, report.Invalid[id]))
			}
			for _, ref := range report.Dangling {
				lines = append(lines, fmt.Sprintf("dangling  %s: %q -> %s", ref.From, ref.Title, ref.Source))
			}
			validateUlog.Info("Dataset has problems").
				Field("invalid", len(report.Invalid)).
				Field("dangling", len(report.Dangling)).
				Pretty(strings.Join(lines, "\n")).
				PrettyOnly().
				Log(ctx)
			return fmt.Errorf("%d invalid collections, %d dangling references", len(report.Invalid), len(report.Dangling))
		},
	}
	return cmd
}
