package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

var (
	inferCodeRounds      int
	inferCodeSchemaPath  string
)

var inferCodeCmd = &cobra.Command{
	Use:   "infer-code <corpus-path>",
	Short: "run SchemaPhase (unless --schema is given) then CodePhase, printing the synthesized artifact",
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

		var seedSchema *schema.Schema
		if inferCodeSchemaPath != "" {
			data, rerr := os.ReadFile(inferCodeSchemaPath)
			if rerr != nil {
				return rerr
			}
			var s schema.Schema
			if uerr := json.Unmarshal(data, &s); uerr != nil {
				return uerr
			}
			seedSchema = &s
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := o.InferCode(ctx, args[0], seedSchema, inferCodeRounds)
		if err != nil {
			return err
		}

		_, err = os.Stdout.WriteString(result.ArtifactSource)
		return err
	},
}

func init() {
	inferCodeCmd.Flags().IntVar(&inferCodeRounds, "rounds", 3, "number of SchemaPhase exemplar rounds (with --schema, the number of exemplars CodePhase verifies against)")
	inferCodeCmd.Flags().StringVar(&inferCodeSchemaPath, "schema", "", "path to a pre-existing schema JSON file, skipping SchemaPhase")
}
