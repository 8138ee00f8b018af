package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/app"
	"github.com/stupside/veil/internal/fingerprint"
	"github.com/stupside/veil/internal/loader"
	"github.com/stupside/veil/internal/version"
)

// Root returns the root CLI command.
func Root() *cli.Command {
	var configPath, profileDir string

	return &cli.Command{
		Name:    "veil",
		Usage:   "Resolve, inspect and apply deterministic browser fingerprint profiles",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to configuration file",
				Value:       "config.yaml",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  loader.SwitchName,
				Usage: "Base64-encoded profile JSON, highest precedence source",
			},
			&cli.StringFlag{
				Name:        "profile-dir",
				Usage:       "Directory searched for " + loader.FileName + " (default: next to the executable)",
				Destination: &profileDir,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := app.Load(configPath)
			if err != nil {
				return ctx, err
			}
			cmd.Metadata["config"] = cfg

			store := fingerprint.Default()
			if profileDir != "" {
				store = fingerprint.NewStore(loader.New(loader.WithDir(profileDir)), nil)
			}
			cmd.Metadata["fingerprint"] = store
			return ctx, nil
		},
		Commands: []*cli.Command{
			showCommand(),
			encodeCommand(),
			propsCommand(),
			noiseCommand(),
			timezoneCommand(),
			probeCommand(),
			{
				Name:  "info",
				Usage: "Print build information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					slog.Info("build",
						"version", version.Version,
						"commit", version.Commit,
						"build_time", version.BuildTime,
					)
					return nil
				},
			},
		},
		Metadata: map[string]any{},
	}
}

// storeFrom extracts the fingerprint store from the CLI command metadata.
func storeFrom(cmd *cli.Command) (*fingerprint.Store, error) {
	v, ok := cmd.Root().Metadata["fingerprint"]
	if !ok {
		return nil, fmt.Errorf("fingerprint store not found in command metadata")
	}
	store, ok := v.(*fingerprint.Store)
	if !ok {
		return nil, fmt.Errorf("fingerprint store has unexpected type %T", v)
	}
	return store, nil
}
