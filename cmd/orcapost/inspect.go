package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/orcapost/internal/docio"
	"github.com/samcharles93/orcapost/pkg/gcode"
)

func inspectCmd() *cli.Command {
	var noDetector bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Classify a G-code file and print a JSON report without writing",
		ArgsUsage: "<file.gcode>",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{
				Name:        "no-detector",
				Usage:       "report as if detector injection were disabled",
				Destination: &noDetector,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("usage: orcapost inspect <file.gcode>", 1)
			}
			path := cmd.Args().First()

			doc, err := docio.ReadDocument(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %s: %v", path, err), 1)
			}

			opts := gcode.DefaultOptions()
			opts.SpaghettiDetector = !noDetector

			res, err := gcode.Convert(doc, opts)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: inspect %s: %v", path, err), 1)
			}

			data, err := encodeReport(res)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode report: %v", err), 1)
			}
			_, _ = os.Stdout.Write(data)
			return nil
		},
	}
}
