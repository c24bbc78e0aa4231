package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/models"
)

// universeFile accepts both the short symbols form and full stock entries.
type universeFile struct {
	Name    string         `yaml:"name"`
	Symbols []string       `yaml:"symbols"`
	Stocks  []models.Stock `yaml:"stocks"`
}

// LoadUniverse reads a scan universe from path. YAML files carry a named
// watchlist; any other extension is treated as a newline-separated symbol
// list where blank lines and # comments are skipped.
func LoadUniverse(path string) (*models.Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "read universe %s", path)
	}

	var universe *models.Universe
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		universe, err = parseYAMLUniverse(raw)
		if err != nil {
			return nil, apperrors.NewDataError("universe", "", fmt.Sprintf("parse %s", path), err)
		}
	default:
		universe = parseSymbolList(raw)
	}

	if universe.Name == "" {
		universe.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(universe.Stocks) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrUniverseEmpty, "%s", path)
	}
	return universe, nil
}

func parseYAMLUniverse(raw []byte) (*models.Universe, error) {
	var file universeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	universe := &models.Universe{Name: file.Name, Stocks: file.Stocks}
	for _, symbol := range file.Symbols {
		universe.Stocks = append(universe.Stocks, models.Stock{Symbol: symbol})
	}
	normalizeStocks(universe)
	return universe, nil
}

func parseSymbolList(raw []byte) *models.Universe {
	universe := &models.Universe{}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		universe.Stocks = append(universe.Stocks, models.Stock{Symbol: line})
	}
	normalizeStocks(universe)
	return universe
}

// normalizeStocks uppercases symbols and drops blanks and duplicates,
// keeping first occurrences in order.
func normalizeStocks(universe *models.Universe) {
	seen := make(map[string]bool, len(universe.Stocks))
	kept := universe.Stocks[:0]
	for _, stock := range universe.Stocks {
		stock.Symbol = strings.ToUpper(strings.TrimSpace(stock.Symbol))
		if stock.Symbol == "" || seen[stock.Symbol] {
			continue
		}
		seen[stock.Symbol] = true
		kept = append(kept, stock)
	}
	universe.Stocks = kept
}
