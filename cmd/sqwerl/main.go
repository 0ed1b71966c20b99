package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sqwerl/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// rootOptions is shared by every subcommand; PersistentPreRunE fills file and log.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	file config.Config
	log  zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "sqwerl",
		Short:         "Browse large collections of things a window at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error|off")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log format: console|json")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.configPath != "" {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.file = cfg
		}
		level := opts.logLevel
		if !cmd.Flags().Changed("log-level") && opts.file.LogLevel != "" {
			level = opts.file.LogLevel
		}
		format := opts.logFormat
		if !cmd.Flags().Changed("log-format") && opts.file.LogFormat != "" {
			format = opts.file.LogFormat
		}
		l, err := newLogger(cmd.ErrOrStderr(), level, format)
		if err != nil {
			return err
		}
		opts.log = l
		return nil
	}
	root.AddCommand(newServeCmd(opts), newBrowseCmd(opts))
	return root
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	var lvl zerolog.Level
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "":
		lvl = zerolog.InfoLevel
	case "off", "none":
		lvl = zerolog.Disabled
	default:
		parsed, err := zerolog.ParseLevel(s)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
		}
		lvl = parsed
	}
	out := w
	switch strings.ToLower(format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
