package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vcpscan/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	t.Run("mixed case header", func(t *testing.T) {
		path := writeFile(t, "aapl.csv",
			"Date,Open,HIGH,Low, Close ,Volume\n"+
				"2025-01-02,10,11,9,10.5,1000\n"+
				"2025-01-03,10.5,12,10,11.5,1500\n")

		candles, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, candles, 2)
		assert.Equal(t, 10.0, candles[0].Open)
		assert.Equal(t, 11.0, candles[0].High)
		assert.Equal(t, 9.0, candles[0].Low)
		assert.Equal(t, 10.5, candles[0].Close)
		assert.Equal(t, int64(1000), candles[0].Volume)
		assert.True(t, candles[0].Timestamp.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("descending rows are sorted chronologically", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"date,high,low,close,volume\n"+
				"2025-01-03,12,10,11.5,1500\n"+
				"2025-01-02,11,9,10.5,1000\n")

		candles, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, candles, 2)
		assert.Equal(t, 10.5, candles[0].Close)
		assert.Equal(t, 11.5, candles[1].Close)
	})

	t.Run("rfc3339 dates and utf8 bom", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"\xef\xbb\xbftimestamp,high,low,close,volume\n"+
				"2025-01-02T00:00:00Z,11,9,10.5,1000\n")

		candles, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, candles, 1)
		assert.True(t, candles[0].Timestamp.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("missing date column synthesizes sequential days", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"high,low,close,volume\n"+
				"11,9,10.5,1000\n"+
				"12,10,11.5,1500\n"+
				"13,11,12.5,2000\n")

		candles, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, candles, 3)
		for i := 1; i < len(candles); i++ {
			assert.Equal(t, 24*time.Hour, candles[i].Timestamp.Sub(candles[i-1].Timestamp))
		}
		assert.False(t, candles[2].Timestamp.After(time.Now().UTC()))
	})

	t.Run("missing volume column", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"date,open,high,low,close\n"+
				"2025-01-02,10,11,9,10.5\n")

		_, err := LoadCSV(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))

		var missing *apperrors.MissingColumnError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "volume", missing.Column)
		assert.Equal(t, path, missing.Path)
	})

	t.Run("empty file reports first missing column", func(t *testing.T) {
		path := writeFile(t, "bars.csv", "")

		_, err := LoadCSV(path)
		assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))
	})

	t.Run("unparseable date", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"date,high,low,close,volume\n"+
				"02/13/2025,11,9,10.5,1000\n")

		_, err := LoadCSV(path)
		require.Error(t, err)

		var dataErr *apperrors.DataError
		assert.True(t, errors.As(err, &dataErr))
	})

	t.Run("non numeric price", func(t *testing.T) {
		path := writeFile(t, "bars.csv",
			"date,high,low,close,volume\n"+
				"2025-01-02,eleven,9,10.5,1000\n")

		_, err := LoadCSV(path)
		require.Error(t, err)

		var dataErr *apperrors.DataError
		assert.True(t, errors.As(err, &dataErr))
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
		assert.Error(t, err)
	})
}
