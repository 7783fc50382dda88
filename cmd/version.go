package cmd

import (
	"context"
	"fmt"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-core/version"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
)

var versionUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.version")

type versionOutput struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	Branch     string `json:"branch"`
	Data       string `json:"data,omitempty"`
	RootSource string `json:"root_source,omitempty"`

	build string
}

func newVersionOutput(settings *config.Settings) versionOutput {
	info := version.GetInfo()
	out := versionOutput{
		Version: info.Version,
		Commit:  info.Commit,
		Branch:  info.Branch,
		build:   info.String(),
	}
	if settings != nil {
		out.Data = settings.Data
		out.RootSource = settings.RootSource
	}
	return out
}

func (o versionOutput) String() string {
	var b strings.Builder
	b.WriteString(o.build)
	if o.Data != "" {
		fmt.Fprintf(&b, "\nData:    %s", o.Data)
		fmt.Fprintf(&b, "\nRoot:    %s", o.RootSource)
	}
	return b.String()
}

// NewVersionCmd prints build information and the dataset ft is configured to read.
func NewVersionCmd(settings **config.Settings) *cobra.Command {
	var (
		jsonOut bool
		short   bool
	)

	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Long:        "Display the version, commit and build information of ft, and the configured dataset",
		Annotations: map[string]string{AnnotationNoNavigator: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newVersionOutput(*settings)
			switch {
			case short:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out.Version)
				return err
			case jsonOut:
				return outputJSON(out)
			}
			versionUlog.Info("Version info").
				Field("version", out.Version).
				Field("commit", out.Commit).
				Field("data", out.Data).
				Pretty(out.String()).
				PrettyOnly().
				Log(context.Background())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output version information in JSON format")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
