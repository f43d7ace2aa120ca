package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var extractWithCodeArtifactPath string

var extractWithCodeCmd = &cobra.Command{
	Use:   "extract-with-code <corpus-path>",
	Short: "apply a previously synthesized artifact to a corpus without running either phase",
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

		source, err := os.ReadFile(extractWithCodeArtifactPath)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := o.ExtractWithCode(ctx, args[0], string(source))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractWithCodeCmd.Flags().StringVar(&extractWithCodeArtifactPath, "artifact", "", "path to a synthesized artifact .go source file")
	extractWithCodeCmd.MarkFlagRequired("artifact")
}
