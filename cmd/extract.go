package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/pkg/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract survey data from a document image",
	Long:  "Sends a survey document image to the vision model and prints the structured extraction record. Feed the output to the georef command.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		extractor := extract.NewExtractor(cfg.Anthropic.Key, cfg.Anthropic.Model)
		record, err := extractor.ExtractSurvey(ctx, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("extraction complete",
			zap.Int("bearings", len(record.Measurements.Bearings)),
			zap.Int("addresses", len(record.PropertyDetails.Addresses)),
		)

		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
