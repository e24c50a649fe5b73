package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"tally/internal/cli"
	"tally/internal/config"
	applog "tally/internal/log"
)

// app carries flags and state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool

	file   config.FileConfig
	logger *applog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:          "tallyctl",
		Short:        "Expense export and summary tool",
		Long:         "Export, summarize and inspect tally expenses from a JSON file or a SQLite database.",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default "+config.FilePath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newExportCmd(a),
		newSummaryCmd(a),
		newTokenCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init() error {
	cli.LoadEnvFile()

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = applog.New(applog.Config{
		Level:     level,
		Format:    applog.FormatPretty,
		Component: applog.ComponentCLI,
		Output:    a.errOut,
	})

	file, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	a.file = file
	a.logger.Debug("Loaded config file", "path", a.configFilePath())
	return nil
}

func (a *app) configFilePath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.FilePath()
}
