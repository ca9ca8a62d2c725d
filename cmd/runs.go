package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/model"
	"github.com/sells-group/georef-cli/internal/store"
)

var (
	runsStatus string
	runsMethod string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored geo-referencing runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "georef")
		if err != nil {
			return err
		}
		defer env.Close()

		runs, err := env.Store.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(runsStatus),
			Method: model.Method(runsMethod),
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tMETHOD\tCONFIDENCE\tVERTICES\tCREATED")
		for _, r := range runs {
			method, confidence, vertices := "-", "-", "-"
			if r.Result != nil {
				method = string(r.Result.Method)
				confidence = fmt.Sprintf("%.2f", r.Result.Confidence)
				vertices = fmt.Sprintf("%d", len(r.Result.Vertices))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Status, method, confidence, vertices,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one stored run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "georef")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (queued, resolving, complete, failed)")
	runsCmd.Flags().StringVar(&runsMethod, "method", "", "filter by resolution method")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
