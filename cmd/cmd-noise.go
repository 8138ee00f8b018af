package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/spoof"
)

// noiseCommand returns the "noise" CLI subcommand.
func noiseCommand() *cli.Command {
	return &cli.Command{
		Name:  "noise",
		Usage: "Print the deterministic noise the profile seed yields",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "input",
				Usage: "Noise input value",
			},
			&cli.FloatFlag{
				Name:  "scale",
				Usage: "Noise amplitude",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "text",
				Usage: "Also print the canvas text deltas for this string",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			input, scale := cmd.Float("input"), cmd.Float("scale")
			fmt.Println(store.GenerateNoise(input, scale))

			if !cmd.IsSet("text") {
				return nil
			}
			p := store.Profile()
			text := cmd.String("text")
			combined := noise.Combine(noise.StableHash(text), p.GlobalSeed)
			dx, dy := spoof.FillTextOffset(p, text)
			slog.Info("text noise",
				"text", text,
				"hash", noise.StableHash(text),
				"gated", p.IsFontNoiseEnabled() && noise.Gate(combined, p.Fonts.OffsetNoiseProbPercent),
				"measure_delta", spoof.TextNoise(p, text),
				"fill_dx", dx,
				"fill_dy", dy,
			)
			return nil
		},
	}
}
