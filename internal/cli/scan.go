package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vcpscan/internal/analysis/screener"
	"vcpscan/internal/analysis/vcp"
	"vcpscan/internal/data"
	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/logging"
	"vcpscan/internal/models"
	"vcpscan/internal/store"
	"vcpscan/pkg/utils"
)

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [universe-file]",
		Short: "Scan a universe of symbols for VCP bases",
		Long: `Run VCP detection across every symbol of a universe using a worker pool.

The universe comes from the positional file argument, from --symbols, or from
the configured universe file. Hits are sorted by score, best first, and can
be persisted with --save for later review through 'vcpscan history'.`,
		Example: `  vcpscan scan
  vcpscan scan watchlists/sp500.yaml --min-score 70
  vcpscan scan --symbols NVDA,AMD,SMCI --trend
  vcpscan scan --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), app.Config.Scan.Timeout)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			symbolsFlag, _ := cmd.Flags().GetString("symbols")
			minScore, _ := cmd.Flags().GetFloat64("min-score")
			requireUptrend, _ := cmd.Flags().GetBool("trend")
			workers, _ := cmd.Flags().GetInt("workers")
			save, _ := cmd.Flags().GetBool("save")
			top, _ := cmd.Flags().GetInt("top")

			universe, err := resolveUniverse(app, args, symbolsFlag)
			if err != nil {
				output.Error("Failed to load universe: %v", err)
				return err
			}
			symbols := universe.Symbols()

			engine, err := vcp.NewEngine(app.Config.Pattern.EngineConfig())
			if err != nil {
				return err
			}
			scanner := vcp.NewScanner(engine, minScore)
			provider := data.NewDirProvider(app.Config.Data.BarsDir)

			scanCfg := screener.Config{
				Workers:        workers,
				RequireUptrend: requireUptrend,
			}

			var bar *progressbar.ProgressBar
			if !output.IsJSON() {
				output.Info("Scanning %d symbols from %s...", len(symbols), universe.Name)
				bar = output.ProgressBar(len(symbols), "Scanning")
				scanCfg.Progress = func(scanned, total int) {
					bar.Set(scanned)
				}
			}

			var run *models.ScanRun
			if save {
				if app.Store == nil {
					return apperrors.Wrapf(apperrors.ErrDatabaseError, "store not initialized, cannot save run")
				}
				run = models.NewScanRun(universe.Name, minScore)
			}

			scr := screener.New(scanner, provider.Candles, scanCfg, app.Logger)
			hits, stats, err := scr.Run(ctx, symbols)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}

			if bar != nil {
				bar.Finish()
				output.Println()
				output.Println()
			}

			if run != nil {
				run.Finish(stats.Total, stats.Matched)
				rows := make([]store.ScanResult, 0, len(hits))
				for _, h := range hits {
					rows = append(rows, store.ResultFromAnalysis(run.ID, h.Symbol, h.Result))
				}
				if err := app.Store.SaveScanRun(ctx, run, rows); err != nil {
					output.Error("Failed to save run: %v", err)
					return err
				}
				logging.LogScanRun(app.Logger, run.ID, stats.Total, stats.Matched, stats.Elapsed)
			}

			if output.IsJSON() {
				report := scanReport{
					Universe: universe.Name,
					MinScore: minScore,
					Hits:     hits,
					Stats:    stats,
				}
				if run != nil {
					report.RunID = run.ID
				}
				return output.JSON(report)
			}

			displayScanResults(output, universe.Name, hits, stats, minScore, top)
			if run != nil {
				output.Success("✓ Run %s saved", run.ID)
				output.Dim("Tip: 'vcpscan history results --run %s' lists the stored rows.", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("symbols", "", "comma-separated symbols to scan instead of a universe file")
	cmd.Flags().Float64("min-score", app.Config.Scan.MinScore, "minimum score for a hit")
	cmd.Flags().Bool("trend", app.Config.Scan.RequireUptrend, "only report symbols in an uptrend")
	cmd.Flags().Int("workers", app.Config.Scan.Workers, "concurrent scan workers")
	cmd.Flags().Bool("save", false, "persist the run to the scan history database")
	cmd.Flags().Int("top", 0, "show only the top N hits (0 = all)")

	return cmd
}

// scanReport is the JSON payload of the scan command.
type scanReport struct {
	Universe string         `json:"universe"`
	MinScore float64        `json:"min_score"`
	RunID    string         `json:"run_id,omitempty"`
	Hits     []screener.Hit `json:"hits"`
	Stats    screener.Stats `json:"stats"`
}

// resolveUniverse picks the symbol set: --symbols wins, then the
// positional file, then the configured universe.
func resolveUniverse(app *App, args []string, symbolsFlag string) (*models.Universe, error) {
	if symbolsFlag != "" {
		seen := make(map[string]bool)
		var stocks []models.Stock
		for _, s := range strings.Split(symbolsFlag, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			stocks = append(stocks, models.Stock{Symbol: s})
		}
		if len(stocks) == 0 {
			return nil, apperrors.ErrUniverseEmpty
		}
		return &models.Universe{Name: "custom", Stocks: stocks}, nil
	}

	path := app.Config.Data.Universe
	if len(args) > 0 {
		path = args[0]
	}
	return data.LoadUniverse(path)
}

func displayScanResults(output *Output, universe string, hits []screener.Hit, stats screener.Stats, minScore float64, top int) {
	color.Cyan("VCP Scan Results - %s", universe)
	output.Println()

	if len(hits) == 0 {
		output.Warning("No symbols matched (min score %.0f)", minScore)
	} else {
		shown := hits
		if top > 0 && top < len(hits) {
			shown = hits[:top]
		}
		table := output.Table("Symbol", "Score", "Contr", "Depths (%)", "Vol Trend", "Pivot", "Dist")
		for _, h := range shown {
			table.Append([]string{
				h.Symbol,
				utils.FormatScore(h.Result.Score),
				fmt.Sprintf("%d", h.Result.ContractionCount),
				formatDepths(h.Result.DepthSequence),
				fmt.Sprintf("%.2f", h.Result.VolumeTrend),
				formatPivot(h.Result.PivotPrice),
				utils.FormatDepth(h.Result.PivotDistancePct),
			})
		}
		table.Render()
		if len(shown) < len(hits) {
			output.Dim("... and %d more (raise --top to see them)", len(hits)-len(shown))
		}
	}

	output.Println()
	output.Printf("Scanned %d symbols in %s: %d analyzed, %d hits, %d failed\n",
		stats.Total, utils.FormatDuration(stats.Elapsed), stats.Analyzed, stats.Matched, stats.Failed)
	output.Println()
}

// formatDepths renders a depth sequence as a compact list.
func formatDepths(depths []float64) string {
	parts := make([]string, 0, len(depths))
	for _, d := range depths {
		parts = append(parts, fmt.Sprintf("%.1f", d))
	}
	return strings.Join(parts, ", ")
}

func formatPivot(pivot *float64) string {
	if pivot == nil {
		return "-"
	}
	return utils.FormatPrice(*pivot)
}
