package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <corpus-path>",
	Short: "partition a corpus into layout-homogeneous clusters without running either phase",
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

		result, err := o.Classify(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}
