package data

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vcpscan/internal/errors"
)

func TestLoadUniverseYAML(t *testing.T) {
	t.Run("symbols shorthand", func(t *testing.T) {
		path := writeFile(t, "tech.yaml",
			"name: tech\n"+
				"symbols:\n"+
				"  - aapl\n"+
				"  - MSFT\n"+
				"  - AAPL\n")

		universe, err := LoadUniverse(path)
		require.NoError(t, err)
		assert.Equal(t, "tech", universe.Name)
		assert.Equal(t, []string{"AAPL", "MSFT"}, universe.Symbols())
	})

	t.Run("full stock entries", func(t *testing.T) {
		path := writeFile(t, "watch.yml",
			"stocks:\n"+
				"  - symbol: nvda\n"+
				"    name: NVIDIA Corporation\n"+
				"    exchange: NASDAQ\n"+
				"  - symbol: jpm\n")

		universe, err := LoadUniverse(path)
		require.NoError(t, err)
		assert.Equal(t, "watch", universe.Name)
		require.Len(t, universe.Stocks, 2)
		assert.Equal(t, "NVDA", universe.Stocks[0].Symbol)
		assert.Equal(t, "NVIDIA Corporation", universe.Stocks[0].Name)
		assert.Equal(t, "NASDAQ", universe.Stocks[0].Exchange)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "broken.yaml", "symbols: [unclosed\n")

		_, err := LoadUniverse(path)
		require.Error(t, err)

		var dataErr *apperrors.DataError
		assert.True(t, errors.As(err, &dataErr))
	})

	t.Run("no symbols", func(t *testing.T) {
		path := writeFile(t, "empty.yaml", "name: empty\n")

		_, err := LoadUniverse(path)
		assert.True(t, errors.Is(err, apperrors.ErrUniverseEmpty))
	})
}

func TestLoadUniverseTxt(t *testing.T) {
	path := writeFile(t, "sp500.txt",
		"# large caps\n"+
			"aapl\n"+
			"\n"+
			"MSFT\n"+
			"  googl  \n")

	universe, err := LoadUniverse(path)
	require.NoError(t, err)
	assert.Equal(t, "sp500", universe.Name)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, universe.Symbols())
}

func TestLoadUniverseMissingFile(t *testing.T) {
	_, err := LoadUniverse(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
