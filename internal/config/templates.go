package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configTemplate = `# vcpscan Configuration

[pattern]
# Minimum number of contractions for a valid pattern
min_contractions = 2
# Maximum number of contractions to track
max_contractions = 5
# Shallowest pullback counted as a contraction (percent)
min_depth_pct = 3.0
# Reject bases whose first pullback is deeper than this (percent)
max_first_depth_pct = 35.0
# Each depth must be at most this fraction of its predecessor
depth_decrease_ratio = 0.7
# Bars on each side of a candidate swing extremum
swing_window = 5
# Minimum bar spacing between accepted swings of the same kind
min_swing_distance = 3
# Volume correlation below which the dry-up term earns full credit
volume_dryup_threshold = -0.2
# Range shrink fraction needed for full range credit
range_contraction_threshold = 0.5
# Percent band around the pivot considered near enough to act on
pivot_distance_threshold = 5.0

# Score weights, must sum to 100
[pattern.weights]
contractions = 25.0
depth_progression = 25.0
volume_dryup = 20.0
range_tightening = 15.0
pivot_proximity = 15.0

[scan]
# Concurrent workers for batch scans
workers = 4
# Minimum score for a scan hit
min_score = 60.0
# Batch scan timeout (e.g. "5m", "30s")
timeout = "5m"
# Only report symbols trading above their moving averages
require_uptrend = false

[data]
# Directory of per-symbol OHLCV files, one <SYMBOL>.csv each
bars_dir = "{{BARS_DIR}}"
# Universe file: YAML watchlist or newline-separated symbol list
universe = "{{UNIVERSE}}"

[database]
# SQLite database for scan history
path = "{{DB_PATH}}"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to the console
console = true
# Log to a rotating file
file = false
file_path = "{{LOG_PATH}}"
max_size = 50
max_backups = 5
max_age = 30
`

func createTemplateConfig(configDir, name string) error {
	path, err := WriteTemplate(configDir, name)
	if err != nil {
		return err
	}
	return fmt.Errorf("config file not found, created template at %s", path)
}

// WriteTemplate writes a commented config template into configDir and
// returns the path of the written file. An existing file is overwritten.
func WriteTemplate(configDir, name string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if name == "" {
		name = "config"
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(renderTemplate(configDir)), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}

// renderTemplate fills the path placeholders so the template works as-is.
func renderTemplate(configDir string) string {
	out := configTemplate
	out = strings.ReplaceAll(out, "{{BARS_DIR}}", filepath.Join(configDir, "bars"))
	out = strings.ReplaceAll(out, "{{UNIVERSE}}", filepath.Join(configDir, "universe.yaml"))
	out = strings.ReplaceAll(out, "{{DB_PATH}}", filepath.Join(configDir, "vcpscan.db"))
	out = strings.ReplaceAll(out, "{{LOG_PATH}}", filepath.Join(configDir, "logs", "vcpscan.log"))
	return out
}
