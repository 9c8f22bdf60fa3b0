package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┬ ┬┌─┐┬  ┌─┐┌┬┐┌─┐┌┐┌┌┬┐┌─┐
  ├─┘├─┤└┬┘├┤ │  ├┤ │││├┤ │││ │ └─┐
  ┴  ┴ ┴ ┴ └─┘┴─┘└─┘┴ ┴└─┘┘└┘ ┴ └─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "payelements",
		Short: "Hosted payment widgets driven from Go",
		Long: `payelements drives hosted payment widgets in the browser from Go.

The serve command runs the example backend API, the browser bridge
WebSocket and its shim script, and a Prometheus endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default payelements.json or payelements.yaml in the working directory)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		configCmd(&configPath),
		catalogCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads path, or the working directory's config file when path
// is empty. A missing default file yields defaults. Environment variables
// override file values.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(".")
		if err != nil && !configFileExists() {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func configFileExists() bool {
	for _, name := range []string{config.ConfigFileName, config.YAMLConfigFileName} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// newLogger builds the process logger from the log config.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
