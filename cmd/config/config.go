package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
	"github.com/mattsolo1/grove-faulttree/pkg/source"
)

var cfgFile string

// Settings is the resolved configuration of a run.
type Settings struct {
	Data         string        `mapstructure:"data"`
	RootSource   string        `mapstructure:"root_source"`
	Separator    string        `mapstructure:"separator"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	Listen       string        `mapstructure:"listen"`
}

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "ft")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FT")
	viper.AutomaticEnv()

	viper.SetDefault("data", ".")
	viper.SetDefault("root_source", source.RootID)
	viper.SetDefault("separator", navigator.DefaultSeparator)
	viper.SetDefault("fetch_timeout", "10s")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("listen", ":8088")

	// A missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// Load returns the current settings.
func Load() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if strings.TrimSpace(s.Data) == "" {
		return nil, fmt.Errorf("no data location configured")
	}
	return &s, nil
}

// NewLogger returns the logger for core packages, writing to stderr.
func (s *Settings) NewLogger() (*logrus.Entry, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	return logrus.NewEntry(logger).WithField("component", "faulttree"), nil
}

// OpenSource opens the configured data location.
func (s *Settings) OpenSource() (source.Source, error) {
	return source.Open(s.Data, source.Options{Timeout: s.FetchTimeout})
}

// NewNavigator builds an uninitialized navigator over src.
func (s *Settings) NewNavigator(src source.Source, log *logrus.Entry, opts ...navigator.Option) *navigator.Navigator {
	base := []navigator.Option{
		navigator.WithLogger(log),
		navigator.WithRootSource(s.RootSource),
		navigator.WithSeparator(s.Separator),
	}
	cache := source.NewCache(src, source.WithFetchTimeout(s.FetchTimeout))
	return navigator.New(cache, append(base, opts...)...)
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ft/config.yaml)")
	cmd.PersistentFlags().StringP("data", "d", "", "site directory holding data/main.json, http(s) base URL or .db bundle")
	cmd.PersistentFlags().String("root", "", "source id of the root collection")
	cmd.PersistentFlags().String("log-level", "", "log level for diagnostics on stderr")

	cobra.CheckErr(viper.BindPFlag("data", cmd.PersistentFlags().Lookup("data")))
	cobra.CheckErr(viper.BindPFlag("root_source", cmd.PersistentFlags().Lookup("root")))
	cobra.CheckErr(viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level")))
}
