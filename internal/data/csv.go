// Package data loads bar series and scan universes from local files.
package data

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/models"
)

// requiredColumns are the bar fields the engine cannot run without.
var requiredColumns = []string{"high", "low", "close", "volume"}

// dateLayouts are the timestamp formats accepted in bar files.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// csvBar is one row of an OHLCV file after header normalization.
type csvBar struct {
	Date   string  `csv:"date,timestamp"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// LoadCSV reads an OHLCV file into chronological candles. Column names are
// matched case-insensitively. The open and date columns are optional; when
// no date column exists, sequential daily timestamps ending today are
// synthesized so the series still orders and renders sensibly.
func LoadCSV(path string) ([]models.Candle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "read bar file %s", path)
	}

	normalized, header := normalizeHeader(raw)
	for _, column := range requiredColumns {
		if !hasColumn(header, column) {
			return nil, apperrors.NewMissingColumnError(column, path)
		}
	}

	var rows []csvBar
	if err := gocsv.UnmarshalBytes(normalized, &rows); err != nil {
		return nil, apperrors.NewDataError("csv", "", fmt.Sprintf("parse %s", path), err)
	}

	hasDates := hasColumn(header, "date") || hasColumn(header, "timestamp")
	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		candle := models.Candle{
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: int64(row.Volume),
		}
		if hasDates {
			ts, err := parseDate(row.Date)
			if err != nil {
				return nil, apperrors.NewDataError("csv", "", fmt.Sprintf("row %d of %s", i+2, path), err)
			}
			candle.Timestamp = ts
		}
		candles = append(candles, candle)
	}

	if !hasDates {
		synthesizeDates(candles)
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// normalizeHeader lowercases and trims the header row so column matching is
// case-insensitive, and returns the resolved column names.
func normalizeHeader(raw []byte) ([]byte, []string) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	end := bytes.IndexByte(raw, '\n')
	if end < 0 {
		end = len(raw)
	}
	line := strings.TrimRight(string(raw[:end]), "\r")
	names := strings.Split(line, ",")
	for i, name := range names {
		names[i] = strings.ToLower(strings.TrimSpace(name))
	}
	normalized := append([]byte(strings.Join(names, ",")), raw[end:]...)
	return normalized, names
}

// hasColumn reports whether the header contains the column name.
func hasColumn(header []string, column string) bool {
	for _, name := range header {
		if name == column {
			return true
		}
	}
	return false
}

// parseDate tries the accepted layouts in order.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// synthesizeDates assigns sequential daily timestamps ending today.
func synthesizeDates(candles []models.Candle) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range candles {
		candles[i].Timestamp = today.AddDate(0, 0, i-len(candles)+1)
	}
}
