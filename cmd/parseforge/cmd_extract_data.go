package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var extractDataRounds int

var extractDataCmd = &cobra.Command{
	Use:   "extract-data <corpus-path>",
	Short: "run the full pipeline: learn a schema, synthesize an extractor, apply it to the corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		o, err := newOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := o.ExtractData(ctx, args[0], extractDataRounds, nil, nil)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		fmt.Fprintf(os.Stderr, "extracted %d/%d documents\n", result.Batch.SuccessCount, result.Batch.SuccessCount+result.Batch.FailedCount)
		return enc.Encode(result.Batch)
	},
}

func init() {
	extractDataCmd.Flags().IntVar(&extractDataRounds, "rounds", 3, "number of SchemaPhase exemplar rounds")
}
