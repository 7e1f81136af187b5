package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"trade-journal/internal/cli"
	"trade-journal/internal/config"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	cfg, err := config.Load(configDir(args))
	if err != nil {
		printError(err)
		return 1
	}
	logger := logging.NewLoggerWithConfig(cfg.LogConfig())

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		printError(err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	rootCmd := cli.NewRootCmd(app)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		printError(err)
		return 1
	}
	return 0
}

// configDir finds --config before cobra parses flags; the config decides how
// the command tree is wired.
func configDir(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	if dir := os.Getenv("TRADEJOURNAL_CONFIG_DIR"); dir != "" {
		return dir
	}
	return config.DefaultConfigDir()
}

func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, apperrors.UserMessage(err))
	if hint := cli.ErrorHint(err); hint != "" {
		color.New(color.Faint).Fprintln(os.Stderr, hint)
	}
}
