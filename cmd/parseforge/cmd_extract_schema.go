package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var extractSchemaRounds int

var extractSchemaCmd = &cobra.Command{
	Use:   "extract-schema <corpus-path>",
	Short: "run only SchemaPhase and print the learned field schema",
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

		result, err := o.ExtractSchema(ctx, args[0], extractSchemaRounds, nil)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.FinalSchema)
	},
}

func init() {
	extractSchemaCmd.Flags().IntVar(&extractSchemaRounds, "rounds", 3, "number of SchemaPhase exemplar rounds")
}
