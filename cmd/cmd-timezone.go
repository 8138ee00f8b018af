package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
)

// timezoneCommand returns the "timezone" CLI subcommand.
func timezoneCommand() *cli.Command {
	var zoneArg string

	return &cli.Command{
		Name:  "timezone",
		Usage: "Apply an IANA zone (default: the profile's) to this process and print the local time",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "zone",
				Destination: &zoneArg,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			if zoneArg == "" {
				// Resolving the profile already enforces its zone; the
				// second call surfaces the error load only logs.
				store.Profile()
				if err := store.EnforceTimezone(); err != nil {
					return fmt.Errorf("enforcing profile timezone: %w", err)
				}
			} else if err := store.Enforcer().Enforce(zoneArg); err != nil {
				return fmt.Errorf("enforcing timezone: %w", err)
			}

			now := time.Now()
			zone, offset := now.Zone()
			slog.Info("timezone applied", "location", time.Local.String(), "zone", zone, "offset", offset)
			fmt.Println(now.Format(time.RFC3339))
			return nil
		},
	}
}
