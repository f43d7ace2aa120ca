// Package main implements the parseforge CLI - a structured-extraction
// pipeline agent that learns a field schema and a synthesized extractor
// from a handful of exemplar HTML documents, then applies it across a
// corpus.
//
// This file is the entry point and command registration hub; each
// Orchestrator operation gets its own cmd_<verb>.go file.
//
// # File Index
//
//   - main.go              - entry point, rootCmd, global flags, init()
//   - cmd_extract_data.go  - extractDataCmd (Orchestrator.ExtractData)
//   - cmd_extract_schema.go - extractSchemaCmd (Orchestrator.ExtractSchema)
//   - cmd_infer_code.go    - inferCodeCmd (Orchestrator.InferCode)
//   - cmd_extract_with_code.go - extractWithCodeCmd (Orchestrator.ExtractWithCode)
//   - cmd_classify.go      - classifyCmd (Orchestrator.Classify)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theRebelliousNerd/parseforge/internal/config"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
	"github.com/theRebelliousNerd/parseforge/internal/model"
	"github.com/theRebelliousNerd/parseforge/internal/orchestrator"
)

var (
	configPath string
	runDir     string
	verbose    bool

	logFactory *logging.Factory
)

var rootCmd = &cobra.Command{
	Use:   "parseforge",
	Short: "parseforge - learns a schema and extractor from example HTML, then applies it at scale",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}
		f, err := logging.NewFactory(cfg.Logging)
		if err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		logFactory = f
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFactory != nil {
			_ = logFactory.Sync()
		}
	},
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnvOverrides(os.Environ())
	return cfg, nil
}

func newOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	var client model.Client
	if cfg.LLM.APIKey == "" {
		client = model.NewFixtureClient()
	} else {
		c, err := model.NewGeminiClient(context.Background(), cfg.LLM, logFactory.Get(logging.CategoryModel))
		if err != nil {
			return nil, err
		}
		client = c
	}
	return orchestrator.New(*cfg, client, logFactory, runDir)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, honoring
// spec.md §5's cancellation contract end to end from the CLI.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&runDir, "run-dir", "", "directory to persist schemas/parsers/results into")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		extractDataCmd,
		extractSchemaCmd,
		inferCodeCmd,
		extractWithCodeCmd,
		classifyCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
