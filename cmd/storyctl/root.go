package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/couchcryptid/case-story-service/internal/adapter/csvsource"
	"github.com/couchcryptid/case-story-service/internal/adapter/parquet"
	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/observability"
	"github.com/couchcryptid/case-story-service/internal/pipeline"
)

// Output formats.
const (
	tableOut = "table"
	jsonOut  = "json"
)

// options is the resolved configuration shared by all subcommands.
type options struct {
	Data     string `mapstructure:"data"`
	Format   string `mapstructure:"format"`
	Catalog  string `mapstructure:"catalog"`
	Segments int    `mapstructure:"segments"`
	Output   string `mapstructure:"output"`
	NoColor  bool   `mapstructure:"no-color"`
}

// app carries per-invocation state so commands stay testable.
type app struct {
	v    *viper.Viper
	opts options
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "storyctl",
		Short:         "Turn daily case counts into annotated stories.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default .storyctl.yaml in . or $HOME)")
	flags.String("data", "data/cases.csv", "path to the case data file")
	flags.String("format", "", "data format: csv or parquet (default from extension)")
	flags.String("catalog", "", "YAML event catalog (default built-in timeline)")
	flags.String("output", tableOut, "output format: table or json")
	flags.Bool("no-color", false, "disable colored output")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(newRegionsCmd(a), newStoryCmd(a))
	return root
}

// setup merges config file, environment and flags, then validates.
func (a *app) setup() error {
	if configFile := a.v.GetString("config"); configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		a.v.SetConfigName(".storyctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME")
	}

	a.v.SetEnvPrefix("STORYCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.opts); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if a.opts.Format == "" {
		a.opts.Format = "csv"
		if strings.HasSuffix(strings.ToLower(a.opts.Data), ".parquet") {
			a.opts.Format = "parquet"
		}
	}
	if a.opts.Format != "csv" && a.opts.Format != "parquet" {
		return fmt.Errorf("invalid format %q: must be csv or parquet", a.opts.Format)
	}
	if a.opts.Output != tableOut && a.opts.Output != jsonOut {
		return fmt.Errorf("invalid output %q: must be table or json", a.opts.Output)
	}
	if a.opts.NoColor {
		color.NoColor = true
	}
	return nil
}

// load reads the data file through the same Service the daemon runs, so
// dropped rows are reported on stderr the same way.
func (a *app) load(cmd *cobra.Command) (*pipeline.State, error) {
	catalog := domain.DefaultCatalog()
	if a.opts.Catalog != "" {
		f, err := os.Open(a.opts.Catalog)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer func() { _ = f.Close() }()
		if catalog, err = domain.LoadCatalog(f); err != nil {
			return nil, err
		}
	}

	var src pipeline.RowSource
	if a.opts.Format == "parquet" {
		src = parquet.NewSource(a.opts.Data)
	} else {
		src = csvsource.New(a.opts.Data, csvsource.Columns{})
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

	return pipeline.New(src, catalog, 0, logger, metrics).Load(cmd.Context())
}
