// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/recolor/pkg/config"
	"github.com/walteh/recolor/pkg/log"
	"github.com/walteh/recolor/pkg/mapping"
	"github.com/walteh/recolor/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	fuzz       float64
	dryRun     bool
	backup     bool
	debug      bool
)

// optionsFileCandidates are checked, in order, when --config is not given.
var optionsFileCandidates = []string{
	".recolor.yaml", ".recolor.yml", ".recolor.json", ".recolor.hcl",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recolor [colors.map] [root]",
		Short: "Replace hex colors in text/markup and pixel colors in raster images",
		Long: `recolor walks a directory tree and applies an ordered color map to every
candidate file: hex literals (#RRGGBB, 0xRRGGBB, and their alpha-prefixed
8-digit forms) in text and markup, and near-matching pixels in raster images
(RGB only; alpha is always preserved).`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging()
			console := log.New(os.Stdout, logLevel())
			ctx = log.NewContext(ctx, console)

			opts, err := loadOptions(ctx, cmd, args)
			if err != nil {
				return err
			}
			return runReplace(ctx, console, opts)
		},
	}

	cmd.Flags().Float64Var(&fuzz, "fuzz", 6.0, "fuzz tolerance percent for image matching")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report changes; do not write or back up")
	cmd.Flags().BoolVar(&backup, "backup", false, "create timestamped backups before overwriting")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "options file path (.recolor.{yaml,json,hcl})")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func logLevel() zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// setupLogging configures zerolog based on flags
func setupLogging() context.Context {
	zerolog.SetGlobalLevel(logLevel())
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zl
	return zl.WithContext(context.Background())
}

// loadOptions layers configuration: built-in defaults, then the options file
// (explicit --config or the first discovered candidate), then positional args
// and explicitly set flags.
func loadOptions(ctx context.Context, cmd *cobra.Command, args []string) (config.Options, error) {
	opts := config.DefaultOptions()

	path := configFile
	if path == "" {
		for _, candidate := range optionsFileCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		loaded, err := config.Load(ctx, path)
		if err != nil {
			// A discovered candidate failing to parse is as fatal as an
			// explicit one: silent misconfiguration is worse than an error.
			return opts, errors.Errorf("loading options file %s: %w", path, err)
		}
		opts = loaded
	}

	if len(args) > 0 {
		opts.MapFile = args[0]
	}
	if len(args) > 1 {
		opts.Root = args[1]
	}
	if cmd.Flags().Changed("fuzz") {
		opts.Fuzz = fuzz
	}
	if cmd.Flags().Changed("dry-run") {
		opts.DryRun = dryRun
	}
	if cmd.Flags().Changed("backup") {
		opts.Backup = backup
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// runReplace loads the map and drives the traversal. Map and root problems
// are fatal and happen before any file is touched; per-file problems are
// warnings inside the walk.
func runReplace(ctx context.Context, console *log.Logger, opts config.Options) error {
	logger := zerolog.Ctx(ctx)

	table, err := mapping.LoadFile(opts.MapFile)
	if err != nil {
		return errors.Errorf("loading map file %s: %w", opts.MapFile, err)
	}

	console.Header("replacing colors under " + opts.Root)
	console.Infof("loaded %d mappings from %s (fuzz %g%%)", len(table), opts.MapFile, opts.Fuzz)
	for _, m := range table {
		logger.Debug().Str("mapping", m.String()).Msg("loaded mapping")
	}
	if opts.DryRun {
		console.Info("dry-run: computing changes only")
	}
	console.LogNewline()

	runner := walker.NewRunner(opts, table, console)
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	console.LogNewline()
	console.Success("done")
	console.Infof("files changed: %d", summary.FilesChanged)
	console.Infof("text replacements: %d", summary.TextReplacements)
	console.Infof("image pixels changed: %d", summary.PixelsChanged)
	switch {
	case opts.DryRun:
		console.Info("dry-run: no files were written")
	case summary.BackupDir != "":
		console.Infof("backups saved at: %s", summary.BackupDir)
	default:
		console.Info("no backups: use --backup to enable")
	}
	return nil
}
