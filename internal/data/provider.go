package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/logging"
	"vcpscan/internal/models"
)

// DirProvider serves candles from per-symbol CSV files in one directory.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider over dir. Files are expected to be
// named <SYMBOL>.csv.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

// Candles loads the bar series for symbol. Its signature satisfies
// screener.CandleProvider.
func (p *DirProvider) Candles(ctx context.Context, symbol string) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := p.resolve(symbol)
	if err != nil {
		return nil, err
	}
	candles, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	logging.LogDataLoad(logging.FromContext(ctx), symbol, path, len(candles))
	return candles, nil
}

// resolve locates the bar file for symbol, trying the given casing first.
func (p *DirProvider) resolve(symbol string) (string, error) {
	for _, name := range []string{symbol, strings.ToUpper(symbol), strings.ToLower(symbol)} {
		path := filepath.Join(p.dir, name+".csv")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", apperrors.Wrapf(apperrors.ErrSymbolNotFound, "no bar file for %s in %s", symbol, p.dir)
}
