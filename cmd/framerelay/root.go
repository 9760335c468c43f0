package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zereker/framerelay/config"
	"github.com/Zereker/framerelay/observability"
)

var (
	// Global flags
	cfgFile  string
	logLevel string

	// Shared state set during PersistentPreRunE
	cfg     *config.Config
	zlogger *zap.Logger
	logger  *observability.Logger
)

// rootCmd is the base command for framerelay.
var rootCmd = &cobra.Command{
	Use:   "framerelay",
	Short: "Stream image frames to a slot-limited relay server",
	Long: `framerelay moves compressed image frames over TCP using a 4-byte
big-endian length prefix per frame. "serve" runs the relay server, "stream"
connects a producer to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		zlogger, err = observability.SetupLogger(cfg.Log)
		if err != nil {
			return errors.Wrap(err, "failed to setup logger")
		}
		logger = observability.NewLogger(zlogger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zlogger != nil {
			_ = zlogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./framerelay.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, streamCmd, configCmd)
}
