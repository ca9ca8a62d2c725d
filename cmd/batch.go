package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/pkg/extract"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Geo-reference every extracted record in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		paths, err := recordPaths(args[0])
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(paths) > batchLimit {
			paths = paths[:batchLimit]
		}
		if len(paths) == 0 {
			zap.L().Info("no records found", zap.String("dir", args[0]))
			return nil
		}

		zap.L().Info("processing batch",
			zap.Int("records", len(paths)),
			zap.Int("concurrency", cfg.Batch.MaxConcurrent),
		)

		bar := progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Geo-referencing"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		var succeeded, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)

		for _, path := range paths {
			g.Go(func() error {
				defer func() { _ = bar.Add(1) }()
				if err := processRecord(gctx, env, path); err != nil {
					failed.Add(1)
					zap.L().Error("record failed",
						zap.String("path", path),
						zap.Error(err),
					)
					return nil // one bad record doesn't stop the batch
				}
				succeeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of records to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// recordPaths lists the .json extraction records under dir, sorted.
func recordPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// processRecord runs one record through the pipeline and persists the run.
func processRecord(ctx context.Context, env *pipelineEnv, path string) error {
	record, err := extract.LoadRecord(path)
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
	annotateQuality(ctx, env, *record, &result)
	return env.Store.CompleteRun(ctx, run.ID, &result)
}
