package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/store"
	"vcpscan/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored scan runs and results",
		Long:  "List persisted scan runs and the per-symbol results they recorded.",
	}
	cmd.AddCommand(newHistoryRunsCmd(app))
	cmd.AddCommand(newHistoryResultsCmd(app))
	return cmd
}

func requireStore(app *App) error {
	if app.Store == nil {
		return apperrors.Wrapf(apperrors.ErrDatabaseError, "store not initialized")
	}
	return nil
}

func newHistoryRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored scan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				output.Error("Scan history unavailable: %v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			universe, _ := cmd.Flags().GetString("universe")
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.RunFilter{Universe: universe, Limit: limit}
			if days > 0 {
				filter.StartDate = time.Now().UTC().AddDate(0, 0, -days)
			}

			runs, err := app.Store.GetScanRuns(ctx, filter)
			if err != nil {
				output.Error("Failed to fetch runs: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}

			color.Cyan("Scan Runs")
			output.Println()

			if len(runs) == 0 {
				output.Info("No runs stored yet.")
				output.Println()
				output.Dim("Tip: 'vcpscan scan --save' records a run.")
				return nil
			}

			table := output.Table("Run", "Started", "Universe", "Scanned", "Hits", "Min Score", "Duration")
			for _, r := range runs {
				table.Append([]string{
					shortID(r.ID),
					utils.FormatDateTime(r.StartedAt.Local()),
					r.Universe,
					fmt.Sprintf("%d", r.Total),
					fmt.Sprintf("%d", r.Matched),
					fmt.Sprintf("%.0f", r.MinScore),
					utils.FormatDuration(r.Duration),
				})
			}
			table.Render()
			output.Println()
			output.Dim("Tip: 'vcpscan history results --run <id>' shows one run's rows.")
			return nil
		},
	}

	cmd.Flags().String("universe", "", "filter by universe name")
	cmd.Flags().Int("days", 0, "only runs from the last N days")
	cmd.Flags().Int("limit", 20, "maximum runs to list")
	return cmd
}

func newHistoryResultsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored per-symbol results",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				output.Error("Scan history unavailable: %v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			runPrefix, _ := cmd.Flags().GetString("run")
			symbol, _ := cmd.Flags().GetString("symbol")
			minScore, _ := cmd.Flags().GetFloat64("min-score")
			all, _ := cmd.Flags().GetBool("all")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.ResultFilter{
				Symbol:      strings.ToUpper(symbol),
				PatternOnly: !all,
				MinScore:    minScore,
				Limit:       limit,
			}
			if runPrefix != "" {
				runID, err := resolveRunID(ctx, app, runPrefix)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				filter.RunID = runID
			}

			results, err := app.Store.GetScanResults(ctx, filter)
			if err != nil {
				output.Error("Failed to fetch results: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			color.Cyan("Stored Scan Results")
			output.Println()

			if len(results) == 0 {
				output.Info("No stored results match the filters.")
				return nil
			}

			table := output.Table("Symbol", "Score", "Contr", "Pivot", "Dist", "Vol Trend", "Run")
			for _, r := range results {
				table.Append([]string{
					r.Symbol,
					utils.FormatScore(r.Score),
					fmt.Sprintf("%d", r.ContractionCount),
					formatPivot(r.PivotPrice),
					utils.FormatDepth(r.PivotDistancePct),
					fmt.Sprintf("%.2f", r.VolumeTrend),
					shortID(r.RunID),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("run", "", "filter by run ID (prefix accepted)")
	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().Float64("min-score", 0, "minimum stored score")
	cmd.Flags().Bool("all", false, "include non-pattern rows")
	cmd.Flags().Int("limit", 50, "maximum rows to list")
	return cmd
}

// resolveRunID expands a run ID prefix to the full stored ID.
func resolveRunID(ctx context.Context, app *App, prefix string) (string, error) {
	runs, err := app.Store.GetScanRuns(ctx, store.RunFilter{})
	if err != nil {
		return "", err
	}

	var match string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" && match != r.ID {
				return "", fmt.Errorf("run id %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no stored run matches %q", prefix)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
