package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phishguard/internal/analysis"
	"phishguard/internal/app"
	"phishguard/internal/config"
	"phishguard/pkg/logger"
)

// newService is replaced in tests.
var newService = app.NewService

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishguard",
		Short: "Classify URLs as phishing or legitimate",
		Long: `phishguard extracts 30 URL, content, WHOIS, TLS and reputation features
from a URL and runs them through the configured models.

Models are read from --models (default ./models). Missing or broken
model files are reported as unavailable; the remaining models still run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringP("models", "m", "", "directory holding the model artifacts")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewFeaturesCmd())
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadService applies the persistent flags on top of the loaded config.
func loadService(cmd *cobra.Command) (*analysis.Service, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("models"); dir != "" {
		cfg.ModelsDir = dir
	}
	level := "warn"
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{Level: level, Format: cfg.LogFormat, Writer: cmd.ErrOrStderr()})
	return newService(cfg, log), nil
}
