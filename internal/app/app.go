// Package app wires configuration, logging and the dashboard surfaces into
// the insightdash command line.
package app

import (
	"fmt"
	"io"
	"os"

	"insightdash/internal/config"
	"insightdash/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	configPath string
	verbose    bool

	out    io.Writer
	logger *zap.Logger
}

// Execute runs the root command against os.Args.
func Execute() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:          "insightdash",
		Short:        "Customer insights dashboard with AI-generated narratives",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				if err := os.Setenv("CONFIG_PATH", c.configPath); err != nil {
					return err
				}
			}
			logger, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), c.verbose)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to config.yaml (sets CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(c.serveCmd())
	root.AddCommand(c.viewsCmd())
	root.AddCommand(c.renderCmd())
	root.AddCommand(c.insightsCmd())
	return root
}

// loadConfig reads the full configuration and rebuilds the logger with the
// configured level and format.
func (c *cli) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, c.verbose)
	if err != nil {
		return config.Config{}, err
	}
	_ = c.logger.Sync()
	c.logger = logger
	c.logger.Info("config loaded",
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("slack", cfg.SlackConfigured()),
		zap.Bool("history", cfg.HistoryEnabled()),
		zap.String("timezone", cfg.Location.String()),
		zap.Int("external_http_timeout_seconds", cfg.ExternalHTTPTimeoutSeconds))
	return cfg, nil
}
