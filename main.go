package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/stupside/veil/cmd"
	"github.com/stupside/veil/internal/loader"
)

func main() {
	args := os.Args[1:]
	slog.SetDefault(newLogger(os.Stderr, args))

	// The switch value is a whole profile; only its presence is logged.
	if loader.HasArgument(args) {
		slog.Debug("profile supplied on the command line", "switch", loader.SwitchName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Root().Run(ctx, os.Args); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			slog.InfoContext(ctx, "shutting down", "cause", cause)
			return
		}
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// newLogger returns the process logger. It is installed before the command
// tree runs so the Before hook already logs at the requested level.
func newLogger(w io.Writer, args []string) *slog.Logger {
	level := slog.LevelInfo
	if debugRequested(args) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// debugRequested reports whether args enable --debug, either bare or with a
// boolean value. Scanning stops at "--".
func debugRequested(args []string) bool {
	on := false
	for _, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "debug" {
			continue
		}
		if !hasValue {
			on = true
			continue
		}
		if b, err := strconv.ParseBool(value); err == nil {
			on = b
		}
	}
	return on
}
