package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bookmap/internal/config"
	"bookmap/internal/logger"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	fs      afero.Fs
	cfg     *config.AppConfig
	cfgPath string
	log     logger.Logger
}

func newRootCommand(a *app) *cobra.Command {
	var (
		cfgPath  string
		logLevel string
		logJSON  bool
	)
	cmd := &cobra.Command{
		Use:           "bookmap",
		Short:         "Embed a curated book corpus and project it onto a 2D map",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfgPath == "" {
				a.cfg, a.cfgPath, err = config.LoadDefault()
			} else {
				a.cfg, err = config.Load(cfgPath)
				a.cfgPath = cfgPath
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				a.cfg.Log.Level = logLevel
			}
			if flags.Changed("log-json") {
				a.cfg.Log.JSON = logJSON
			}
			lc := logger.DefaultConfig()
			lc.Level = a.cfg.Log.Level
			lc.JSON = a.cfg.Log.JSON
			lc.Output = cmd.ErrOrStderr()
			a.log = logger.New(lc)
			a.log.Debug("config loaded", "path", a.cfgPath)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Path to YAML config file (defaults to ./config.yaml, then ~/.config/bookmap/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newCleanCommand(a))
	cmd.AddCommand(newViewCommand(a))
	return cmd
}
