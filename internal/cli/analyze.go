package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vcpscan/internal/analysis/indicators"
	"vcpscan/internal/analysis/vcp"
	"vcpscan/internal/data"
	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/logging"
	"vcpscan/internal/models"
	"vcpscan/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol|csv-file>",
		Short: "Analyze one symbol for a volatility contraction pattern",
		Long: `Run the VCP detection pipeline on a single bar series:
- Swing detection and contraction segmentation
- Depth progression, volume dry-up and range tightening checks
- Pattern validation and 0-100 scoring
- Trend context (moving averages, RSI, ATR, 52-week range)

The argument is a ticker resolved against the configured bars directory,
or a path to a CSV file with date,open,high,low,close,volume columns.`,
		Example: `  vcpscan analyze NVDA
  vcpscan analyze testdata/AAPL.csv
  vcpscan analyze MSFT --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), app.Config.Scan.Timeout)
			defer cancel()
			ctx = logging.WithLogger(ctx, app.Logger)

			symbol, candles, err := loadAnalyzeTarget(ctx, app, args[0])
			if err != nil {
				output.Error("Failed to load bars: %v", err)
				return err
			}
			if len(candles) == 0 {
				output.Error("No bars found for %s", symbol)
				return apperrors.ErrInsufficientData
			}

			engine, err := vcp.NewEngine(app.Config.Pattern.EngineConfig())
			if err != nil {
				return err
			}

			result, err := engine.AnalyzeCandles(candles)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			trend, err := indicators.ComputeTrendContext(candles)
			if err != nil {
				app.Logger.Debug().Err(err).Str("symbol", symbol).Msg("Trend context unavailable")
				trend = nil
			}

			if output.IsJSON() {
				return output.JSON(analyzeReport{
					Symbol: symbol,
					Bars:   len(candles),
					Result: result,
					Trend:  trend,
				})
			}

			return displayAnalysis(output, symbol, candles, result, trend)
		},
	}
	return cmd
}

// analyzeReport is the JSON payload of the analyze command.
type analyzeReport struct {
	Symbol string                   `json:"symbol"`
	Bars   int                      `json:"bars"`
	Result *vcp.Result              `json:"result"`
	Trend  *indicators.TrendContext `json:"trend,omitempty"`
}

// loadAnalyzeTarget reads bars for a ticker from the configured bars
// directory, or straight from a CSV path when the argument looks like
// a file.
func loadAnalyzeTarget(ctx context.Context, app *App, target string) (string, []models.Candle, error) {
	if looksLikeFile(target) {
		candles, err := data.LoadCSV(target)
		if err != nil {
			return target, nil, err
		}
		base := filepath.Base(target)
		symbol := strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
		return symbol, candles, nil
	}

	symbol := strings.ToUpper(target)
	provider := data.NewDirProvider(app.Config.Data.BarsDir)
	candles, err := provider.Candles(ctx, symbol)
	if err != nil {
		return symbol, nil, err
	}
	return symbol, candles, nil
}

func looksLikeFile(target string) bool {
	if strings.ContainsAny(target, "/\\") {
		return true
	}
	return strings.EqualFold(filepath.Ext(target), ".csv")
}

var componentLabels = map[string]string{
	vcp.ComponentContractions: "Contractions",
	vcp.ComponentDepth:        "Depth Progression",
	vcp.ComponentVolume:       "Volume Dry-Up",
	vcp.ComponentRange:        "Range Tightening",
	vcp.ComponentPivot:        "Pivot Proximity",
}

var componentOrder = []string{
	vcp.ComponentContractions,
	vcp.ComponentDepth,
	vcp.ComponentVolume,
	vcp.ComponentRange,
	vcp.ComponentPivot,
}

func displayAnalysis(output *Output, symbol string, candles []models.Candle, result *vcp.Result, trend *indicators.TrendContext) error {
	last := candles[len(candles)-1]

	output.Println()
	output.Bold("%s Pattern Analysis", symbol)
	output.Println()
	output.Printf("  %s\n", output.Verdict(result.IsPattern))
	output.Println()

	// Score visualization
	barWidth := 40
	pos := int(result.Score / 100 * float64(barWidth))
	if pos >= barWidth {
		pos = barWidth - 1
	}
	bar := strings.Repeat("░", pos) + "█" + strings.Repeat("░", barWidth-pos-1)
	output.Printf("    0 [%s] 100\n", bar)
	output.Printf("  Score: %s\n", output.FormatScore(result.Score))
	output.Println()

	output.Box("Base Summary", []string{
		fmt.Sprintf("Bars:         %s through %s", utils.FormatQuantity(int64(len(candles))), utils.FormatDate(last.Timestamp)),
		fmt.Sprintf("Last Close:   %s", utils.FormatPrice(last.Close)),
		fmt.Sprintf("Contractions: %d", result.ContractionCount),
		fmt.Sprintf("Volume Trend: %.2f", result.VolumeTrend),
		fmt.Sprintf("Range Ratio:  %.2f", result.RangeContraction),
	})
	output.Println()

	if len(result.Components) > 0 {
		output.Bold("Score Components")
		for _, name := range componentOrder {
			if value, ok := result.Components[name]; ok {
				output.Printf("  %-18s %5.1f\n", componentLabels[name], value)
			}
		}
		output.Println()
	}

	if len(result.Contractions) > 0 {
		output.Bold("Contractions")
		table := output.Table("#", "High", "Low", "Depth", "Bars", "Avg Volume")
		for i, c := range result.Contractions {
			table.Append([]string{
				fmt.Sprintf("%d", i+1),
				utils.FormatPrice(c.HighPrice),
				utils.FormatPrice(c.LowPrice),
				utils.FormatDepth(c.DepthPct),
				fmt.Sprintf("%d", c.DurationBars),
				utils.FormatVolume(int64(c.AvgVolume)),
			})
		}
		table.Render()
		output.Println()
	}

	if result.PivotPrice != nil {
		output.Bold("Pivot")
		output.Printf("  Price:    %s\n", utils.FormatPrice(*result.PivotPrice))
		if result.PivotDistancePct >= 0 {
			output.Printf("  Distance: %.1f%% below pivot\n", result.PivotDistancePct)
		} else {
			output.Printf("  Distance: %.1f%% above pivot\n", -result.PivotDistancePct)
		}
		output.Println()
	}

	if trend != nil {
		output.Bold("Trend Context")
		output.Printf("  Status:     %s\n", output.TrendTag(trend.InUptrend))
		output.Printf("  Close:      %s\n", utils.FormatPrice(trend.Close))
		output.Printf("  SMA 50:     %s\n", utils.FormatPrice(trend.SMA50))
		if trend.SMA200 > 0 {
			output.Printf("  SMA 200:    %s\n", utils.FormatPrice(trend.SMA200))
		}
		output.Printf("  RSI 14:     %.1f\n", trend.RSI14)
		output.Printf("  ATR 14:     %s\n", utils.FormatPrice(trend.ATR14))
		output.Printf("  52wk Range: %s - %s\n", utils.FormatPrice(trend.Low52Week), utils.FormatPrice(trend.High52Week))
		output.Printf("  From High:  %s  Above Low: %s\n", utils.FormatPercent(trend.PctFromHigh), utils.FormatPercent(trend.PctAboveLow))
		output.Println()
	}

	if len(result.Diagnostics) > 0 {
		output.Bold("Diagnostics")
		for _, d := range result.Diagnostics {
			output.Printf("  • %s\n", d)
		}
		output.Println()
	}

	output.Dim("Tip: 'vcpscan scan' runs detection across the whole universe.")
	return nil
}
