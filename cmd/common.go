package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
)

// AnnotationNoNavigator marks commands that run without opening the data source.
const AnnotationNoNavigator = "faulttree/no-navigator"

var initUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.init")

// initNavigator loads the root collection and tells the user when the built-in fallback
// root is shown instead.
func initNavigator(ctx context.Context, nav *navigator.Navigator) error {
	if err := nav.Init(ctx); err != nil {
		return err
	}
	if fallback, err := nav.UsedFallback(); fallback {
		initUlog.Info("Using built-in root collection").
			Field("error", err.Error()).
			Pretty(fmt.Sprintf("Root collection unavailable (%v), showing the built-in folders", err)).
			PrettyOnly().
			Log(ctx)
	}
	return nil
}

// splitPath turns "A > B" style arguments into titles. Several arguments are taken as
// one title each.
func splitPath(args []string, sep string) []string {
	if len(args) != 1 {
		return args
	}
	sep = strings.TrimSpace(sep)
	if sep == "" {
		return args
	}
	parts := strings.Split(args[0], sep)
	titles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			titles = append(titles, p)
		}
	}
	return titles
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
