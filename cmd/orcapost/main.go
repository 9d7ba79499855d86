package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "orcapost",
		Usage: "OrcaSlicer to FlashForge G-code post-processor",
		Flags: loggingFlags(),
		// OrcaSlicer's post-processing hook invokes the binary with the
		// G-code path as its sole argument, so a bare path converts.
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.ShowAppHelp(cmd)
			}
			return runConvert(ctx, cmd, convertSettings{
				path:         cmd.Args().First(),
				backupSuffix: defaultBackupSuffix,
			})
		},
		Commands: []*cli.Command{
			convertCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
