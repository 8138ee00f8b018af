package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/app"
	"github.com/stupside/veil/internal/browser"
)

// probeCommand returns the "probe" CLI subcommand.
func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Open pages in Chrome with the profile applied and report what they observe",
		ArgsUsage: "<url>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail when a page observes a value other than the profile's",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			urls := cmd.Args().Slice()
			if len(urls) == 0 {
				return fmt.Errorf("at least one URL is required")
			}

			cfg, err := app.ConfigFrom(cmd)
			if err != nil {
				return err
			}
			store, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			reports := browser.ProbeAll(ctx, cfg, store.Profile(), urls)
			if len(reports) == 0 {
				return fmt.Errorf("no page could be probed")
			}

			out, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding reports: %w", err)
			}
			fmt.Println(string(out))

			var mismatches int
			for _, r := range reports {
				for _, m := range r.Mismatches {
					slog.Warn("page observed an unspoofed value", "url", r.URL, "property", m.Property, "want", m.Want, "got", m.Got)
				}
				mismatches += len(r.Mismatches)
			}
			if mismatches > 0 && cmd.Bool("strict") {
				return fmt.Errorf("%d mismatched values across %d pages", mismatches, len(reports))
			}
			return nil
		},
	}
}
