package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geodesy"
	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/validate"
	"github.com/sells-group/georef-cli/pkg/extract"
)

var georefFormat string

var georefCmd = &cobra.Command{
	Use:   "georef <record.json>",
	Short: "Geo-reference one extracted survey record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "georef")
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := extract.LoadRecord(args[0])
		if err != nil {
			return err
		}

		run, err := env.Store.CreateRun(ctx, *record)
		if err != nil {
			return err
		}
		if err := env.Store.UpdateRunStatus(ctx, run.ID, model.RunStatusResolving); err != nil {
			return err
		}

		result := env.Engine.GeoReference(ctx, *record)
		quality := annotateQuality(ctx, env, *record, &result)
		if err := env.Store.CompleteRun(ctx, run.ID, &result); err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.Bool("success", result.Success),
			zap.String("method", string(result.Method)),
			zap.Float64("document_quality", quality.Score),
		)

		out, err := renderResult(&result, georefFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	georefCmd.Flags().StringVar(&georefFormat, "format", "json", "output format: json, wkt, geojson")
	rootCmd.AddCommand(georefCmd)
}

// annotateQuality scores the source document and folds the outcome into
// the result notes. Stage confidences are untouched; the quality score
// travels as advisory metadata on the run.
func annotateQuality(ctx context.Context, env *pipelineEnv, record model.ExtractionRecord, result *model.GeoReferenceResult) validate.QualityReport {
	report := validate.Quality(ctx, record, env.Geocoder)
	result.Notes = appendQualityNote(result.Notes, report)
	return report
}

// appendQualityNote formats the quality score as a result note.
func appendQualityNote(notes string, report validate.QualityReport) string {
	note := fmt.Sprintf("document quality %.2f (recommended confidence %.2f)",
		report.Score, report.RecommendedScore)
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

// renderResult serializes a result for the terminal. Geometry formats
// require a successful resolution; json renders failures too.
func renderResult(result *model.GeoReferenceResult, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", eris.Wrap(err, "marshal result")
		}
		return string(data), nil
	case "wkt":
		if !result.Success {
			return "", eris.New("no boundary to render: " + result.Notes)
		}
		return geodesy.EncodeWKT(result.Vertices)
	case "geojson":
		if !result.Success {
			return "", eris.New("no boundary to render: " + result.Notes)
		}
		data, err := geodesy.EncodeGeoJSON(result.Vertices)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", eris.Errorf("unknown format %q", format)
	}
}
