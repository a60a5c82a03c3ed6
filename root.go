package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/danecando/gdocs-mcp/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// defaultConfigPath is used when neither --config nor GDOCS_CONFIG is set.
const defaultConfigPath = "gdocs-mcp.toml"

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gdocs-mcp",
		Short: "Delegated-credential server for Google Drive and Sheets",
		Long: "gdocs-mcp lets a remote tool-calling client operate on a user's Google Drive\n" +
			"and Sheets account through short-lived delegated credentials: it drives the\n" +
			"one-time consent handshake, keeps the credential pair fresh, and executes\n" +
			"authenticated API calls on the session's behalf.",
		Version: version,
		// Silence cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newKeygenCmd())

	return cmd
}

// configPath resolves the config file location: --config > GDOCS_CONFIG >
// default.
func configPath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}

	if env := os.Getenv("GDOCS_CONFIG"); env != "" {
		return env
	}

	return defaultConfigPath
}

// buildLogger creates an slog.Logger from the resolved config and CLI
// flags. Config provides the baseline; --verbose and --quiet override it
// because CLI flags always win. Format "auto" picks text on a terminal and
// JSON otherwise.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.Logging.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	useJSON := cfg.Logging.LogFormat == "json" ||
		(cfg.Logging.LogFormat == "auto" && !isatty.IsTerminal(os.Stderr.Fd()))
	if useJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
