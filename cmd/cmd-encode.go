package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/stupside/veil/internal/loader"
)

// encodeCommand returns the "encode" CLI subcommand.
func encodeCommand() *cli.Command {
	var pathArg string

	return &cli.Command{
		Name:  "encode",
		Usage: "Validate a profile file and print its launch argument",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print only the base64 value",
			},
			&cli.BoolFlag{
				Name:  "normalize",
				Usage: "Encode the resolved profile instead of the file as written",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "file",
				Destination: &pathArg,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if pathArg == "" {
				return fmt.Errorf("a profile file is required")
			}

			doc, err := os.ReadFile(pathArg)
			if err != nil {
				return fmt.Errorf("reading %s: %w", pathArg, err)
			}

			p, err := loader.Decode(doc)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", pathArg, err)
			}
			for _, issue := range p.Validate() {
				slog.Warn("implausible profile value", "field", issue.Field, "rule", issue.Rule, "value", issue.Value)
			}

			if cmd.Bool("normalize") {
				if doc, err = json.Marshal(p); err != nil {
					return fmt.Errorf("encoding profile: %w", err)
				}
			}

			if cmd.Bool("raw") {
				fmt.Println(loader.Encode(doc))
				return nil
			}
			fmt.Println(loader.Argument(doc))
			return nil
		},
	}
}
