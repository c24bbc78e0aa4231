package main

import (
	"fmt"
	"os"
	"strings"

	"vcpscan/internal/cli"
	"vcpscan/internal/config"
	"vcpscan/internal/logging"
)

func main() {
	configDir := configDirArg(os.Args[1:])

	cfg, cfgErr := config.Load(configDir)
	if cfg == nil {
		cfg = config.Default()
	}

	logger := logging.NewLoggerWithConfig(cfg.Logging)
	if cfgErr != nil {
		logger.Warn().Msg(cfgErr.Error())
		logger.Warn().Msg("Continuing with default configuration")
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirArg pulls --config out of argv before cobra parses it, so
// the directory can steer the initial load.
func configDirArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
