package main

import (
	"fmt"
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd"
	"github.com/mattsolo1/grove-faulttree/cmd/config"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
)

var (
	nav      *navigator.Navigator
	settings *config.Settings
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"ft",
		"Browse lazily loaded fault trees",
	)
	config.AddGlobalFlags(rootCmd)
	cobra.OnInitialize(config.InitConfig)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		var err error
		settings, err = config.Load()
		if err != nil {
			return err
		}
		if c.Annotations[cmd.AnnotationNoNavigator] != "" {
			return nil
		}

		logger, err := settings.NewLogger()
		if err != nil {
			return err
		}
		src, err := settings.OpenSource()
		if err != nil {
			return fmt.Errorf("failed to open data source: %w", err)
		}
		nav = settings.NewNavigator(src, logger)
		return nil
	}

	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if nav == nil {
			return nil
		}
		return nav.Cache().Close()
	}

	rootCmd.AddCommand(cmd.NewTuiCmd(&settings))
	rootCmd.AddCommand(cmd.NewTreeCmd(&nav))
	rootCmd.AddCommand(cmd.NewSearchCmd(&nav))
	rootCmd.AddCommand(cmd.NewShowCmd(&nav))
	rootCmd.AddCommand(cmd.NewValidateCmd(&settings))
	rootCmd.AddCommand(cmd.NewPackCmd(&settings))
	rootCmd.AddCommand(cmd.NewServeCmd(&nav, &settings))
	rootCmd.AddCommand(cmd.NewKeymapCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd(&settings))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
