package cmd

import (
	"context"
	"fmt"
	"sort"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
	"github.com/mattsolo1/grove-faulttree/pkg/source"
)

var packUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.pack")

func NewPackCmd(settings **config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <bundle.db>",
		Short: "Pack a dataset directory into a sqlite bundle",
		Long: `Store every valid collection of the data directory in a single sqlite file.
The bundle can then be used as the data location.

Examples:
  ft pack faults.db
  ft --data faults.db tui`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{AnnotationNoNavigator: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s := *settings

			from, err := source.NewFileSource(s.Data)
			if err != nil {
				return err
			}
			to, err := source.OpenBundle(args[0])
			if err != nil {
				return err
			}
			defer to.Close()

			result, err := source.Pack(ctx, from, to)
			if err != nil {
				return fmt.Errorf("failed to pack dataset: %w", err)
			}

			failed := make([]string, 0, len(result.Failed))
			for id := range result.Failed {
				failed = append(failed, id)
			}
			sort.Strings(failed)
			for _, id := range failed {
				packUlog.Info("Skipped collection").
					Field("source_id", id).
					Field("error", result.Failed[id].Error()).
					Pretty(fmt.Sprintf("skipped %s: %v", id, result.Failed[id])).
					PrettyOnly().
					Log(ctx)
			}

			packUlog.Success("Bundle written").
				Field("path", to.Path()).
				Field("stored", len(result.Stored)).
				Field("skipped", len(failed)).
				Pretty(fmt.Sprintf("Packed %d collections into %s", len(result.Stored), to.Path())).
				PrettyOnly().
				Emit()
			return nil
		},
	}
	return cmd
}
