package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "georef-cli",
	Short: "Geo-reference property survey documents",
	Long:  "Resolves extracted survey data (addresses, legal descriptions, bearing/distance call chains) into absolute WGS84 parcel boundaries via county GIS lookup, survey walking, and geocoding fallbacks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
