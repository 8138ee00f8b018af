package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// showCommand returns the "show" CLI subcommand.
func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the resolved fingerprint profile and the source it came from",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Fail when the profile holds implausible values",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storeFrom(cmd)
			if err != nil {
				return err
			}

			p := store.Profile()
			out, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding profile: %w", err)
			}

			slog.Info("profile", "source", store.Source(), "seed", p.GlobalSeed)
			fmt.Println(string(out))

			if !cmd.Bool("validate") {
				return nil
			}
			var errs []error
			for _, issue := range p.Validate() {
				errs = append(errs, errors.New(issue.String()))
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("profile validation failed: %w", err)
			}
			return nil
		},
	}
}
