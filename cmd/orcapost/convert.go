package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/orcapost/internal/docio"
	"github.com/samcharles93/orcapost/internal/logger"
	"github.com/samcharles93/orcapost/pkg/gcode"
)

type convertSettings struct {
	path         string
	noDetector   bool
	noBackup     bool
	backupSuffix string
	reportPath   string
	dryRun       bool
}

func convertCmd() *cli.Command {
	var s convertSettings

	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a G-code file to FlashForge block order in place",
		ArgsUsage: "<file.gcode>",
		Flags: append(loggingFlags(),
			&cli.BoolFlag{
				Name:        "no-detector",
				Usage:       "skip spaghetti detector injection",
				Destination: &s.noDetector,
			},
			&cli.BoolFlag{
				Name:        "no-backup",
				Usage:       "skip backup file creation",
				Destination: &s.noBackup,
			},
			&cli.StringFlag{
				Name:        "backup-suffix",
				Usage:       "suffix for the backup file",
				Value:       defaultBackupSuffix,
				Destination: &s.backupSuffix,
			},
			&cli.StringFlag{
				Name:        "report",
				Usage:       "write a JSON conversion report to a file, or - for stdout",
				Destination: &s.reportPath,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "convert in memory without touching the file",
				Destination: &s.dryRun,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("usage: orcapost convert <file.gcode>", 1)
			}
			s.path = cmd.Args().First()
			return runConvert(ctx, cmd, s)
		},
	}
}

func runConvert(ctx context.Context, cmd *cli.Command, s convertSettings) error {
	cfg := LoadConfig()
	applyConvertConfig(cmd, cfg, &s)
	log := newLogger(cfg, cmd).With("file", s.path)

	doc, err := docio.ReadDocument(s.path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: read %s: %v", s.path, err), 1)
	}

	opts := gcode.DefaultOptions()
	opts.SpaghettiDetector = !s.noDetector

	res, err := gcode.Convert(doc, opts)
	if err != nil {
		// The original file has not been touched at this point.
		return cli.Exit(fmt.Sprintf("error: convert %s: %v", s.path, err), 1)
	}
	for _, w := range res.Warnings {
		log.Warn("conversion warning", "detail", w)
	}

	if s.reportPath != "" {
		if err := writeReport(s.reportPath, res); err != nil {
			return cli.Exit(fmt.Sprintf("error: write report: %v", err), 1)
		}
	}

	if s.dryRun {
		logSummary(log, res, "dry run, file unchanged")
		return nil
	}

	backupPath := s.path + s.backupSuffix
	if !s.noBackup {
		if err := docio.Backup(s.path, backupPath); err != nil {
			return cli.Exit(fmt.Sprintf("error: create backup %s: %v", backupPath, err), 1)
		}
		log.Debug("backup created", "backup", backupPath)
	}

	if err := docio.ReplaceFile(s.path, res.Output.Bytes()); err != nil {
		if !s.noBackup {
			if rerr := docio.Restore(backupPath, s.path); rerr != nil {
				log.Error("restore from backup failed, manual intervention required",
					"backup", backupPath, "error", rerr)
			} else {
				log.Info("original restored from backup", "backup", backupPath)
			}
		}
		return cli.Exit(fmt.Sprintf("error: write %s: %v", s.path, err), 1)
	}

	logSummary(log, res, "converted to FlashForge block order")
	return nil
}

func logSummary(log logger.Logger, res *gcode.Result, msg string) {
	log.Info(msg,
		"lines", res.Output.LineCount(),
		"fields", len(res.Fields),
		"injected", res.Injected,
		"already_canonical", res.AlreadyCanonical)
}

func writeReport(path string, res *gcode.Result) error {
	data, err := encodeReport(res)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
