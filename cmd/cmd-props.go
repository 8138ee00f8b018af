package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/spoof"
)

// propsCommand returns the "props" CLI subcommand.
func propsCommand() *cli.Command {
	return &cli.Command{
		Name:  "props",
		Usage: "Evaluate every spoofed property against this host's true values",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user-agent",
				Usage: "True user agent of the browser build",
				Value: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/146.0.0.0 Safari/537.36",
			},
			&cli.IntFlag{
				Name:  "screen-width",
				Value: 1920,
			},
			&cli.IntFlag{
				Name:  "screen-height",
				Value: 1080,
			},
			&cli.FloatFlag{
				Name:  "sample-rate",
				Usage: "True audio output sample rate in Hz",
				Value: 48000,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print rows as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			// Loading the profile may move time.Local, so the host is
			// measured first.
			host := measureHost(cmd)
			rows := spoof.Evaluate(store.Profile(), host)

			if cmd.Bool("json") {
				out, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding rows: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			for _, r := range rows {
				slog.Info("property", "name", r.Name, "kind", r.Kind, "measured", r.Measured, "observed", r.Observed)
			}
			return nil
		},
	}
}

func measureHost(cmd *cli.Command) spoof.Host {
	width, height := cmd.Int("screen-width"), cmd.Int("screen-height")
	return spoof.Host{
		UserAgent:           cmd.String("user-agent"),
		Platform:            hostPlatform(runtime.GOOS, runtime.GOARCH),
		Language:            hostLanguage(os.Getenv("LANG")),
		HardwareConcurrency: runtime.NumCPU(),
		DeviceMemory:        8,
		Screen: spoof.ScreenMetrics{
			Width: width, Height: height,
			ColorDepth: 24, PixelDepth: 24,
			AvailWidth: width, AvailHeight: height,
		},
		SampleRate: cmd.Float("sample-rate"),
		Connection: spoof.Connection{Downlink: 10, RTT: 50, EffectiveType: "4g"},
		Battery:    spoof.Battery{Charging: true, DischargingTime: math.Inf(1), Level: 1},
		TimeZone:   hostZone(),
	}
}

// hostPlatform returns the navigator.platform Chrome reports on an OS.
func hostPlatform(goos, goarch string) string {
	switch goos {
	case "windows":
		return "Win32"
	case "darwin":
		return "MacIntel"
	case "android":
		return "Linux armv81"
	}
	if goarch == "arm64" {
		return "Linux aarch64"
	}
	return "Linux x86_64"
}

// hostLanguage turns a POSIX locale such as "de_DE.UTF-8" into a BCP 47
// tag.
func hostLanguage(lang string) string {
	lang, _, _ = strings.Cut(lang, ".")
	lang, _, _ = strings.Cut(lang, "@")
	if lang == "" || lang == "C" || lang == "POSIX" {
		return "en-US"
	}
	return strings.ReplaceAll(lang, "_", "-")
}

func hostZone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return time.Local.String()
}
