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

// Package walker traverses a directory tree and routes each candidate file
// to the text or pixel engine, handling backups, dry runs, and fail-soft
// per-file error isolation.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/recolor/pkg/config"
	"github.com/walteh/recolor/pkg/hexscan"
	"github.com/walteh/recolor/pkg/imagefile"
	"github.com/walteh/recolor/pkg/log"
	"github.com/walteh/recolor/pkg/mapping"
	"github.com/walteh/recolor/pkg/pixel"
	"gitlab.com/tozd/go/errors"
)

// 📊 Summary is the outcome of one run
type Summary struct {
	FilesChanged     int    // files with at least one replacement
	TextReplacements int    // total text pattern matches rewritten
	PixelsChanged    int    // total pixels rewritten across all images
	BackupDir        string // populated when at least one backup was written
}

// 🎮 Runner walks the tree and applies the mapping table file by file.
// Traversal is sequential: one file is fully read, transformed, and written
// before the next begins. Failure isolation is per file — an error is logged
// as a warning and the walk continues.
type Runner struct {
	opts       config.Options
	table      mapping.Table
	replacer   *hexscan.Replacer
	tolerance  uint8
	classifier *Classifier
	backups    *BackupManager
	console    *log.Logger
}

// 🏭 NewRunner wires the engines for one run
func NewRunner(opts config.Options, table mapping.Table, console *log.Logger) *Runner {
	return &Runner{
		opts:       opts,
		table:      table,
		replacer:   hexscan.New(table),
		tolerance:  pixel.Tolerance(opts.Fuzz),
		classifier: NewClassifier(opts.TextExtensions, opts.ImageExtensions, opts.IgnorePatterns),
		backups:    NewBackupManager(opts.Root, time.Now()),
		console:    console,
	}
}

// 🚀 Run performs the traversal. It fails only before the walk starts (root
// missing); everything after is per-file and fail-soft.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(r.opts.Root)
	if err != nil {
		return nil, errors.Errorf("root not found: %s: %w", r.opts.Root, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("root is not a directory: %s", r.opts.Root)
	}

	summary := &Summary{}

	walkErr := filepath.WalkDir(r.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.console.Warningf("failed reading %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if isBackupDirName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(r.opts.Root, path)
		if relErr != nil {
			rel = path
		}

		kind := r.classifier.Classify(rel)
		if kind == KindIgnore {
			logger.Debug().Str("file", rel).Msg("skipping unhandled file")
			return nil
		}

		count, procErr := r.processFile(ctx, path, kind)
		if procErr != nil {
			// fail-soft per file
			r.console.Warningf("failed processing %s: %v", rel, procErr)
			return nil
		}
		if count == 0 {
			return nil
		}

		summary.FilesChanged++
		switch kind {
		case KindText:
			summary.TextReplacements += count
		case KindImage:
			summary.PixelsChanged += count
		}
		r.console.LogFileOperation(ctx, log.FileOperation{
			Path:         rel,
			Kind:         kind.String(),
			Replacements: count,
			DryRun:       r.opts.DryRun,
		})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Errorf("walking %s: %w", r.opts.Root, walkErr)
	}

	if r.backups.Created() {
		summary.BackupDir = r.backups.Dir()
	}
	return summary, nil
}

// processFile routes one file to its engine and writes the result back when
// anything changed and the run is not dry.
func (r *Runner) processFile(ctx context.Context, path string, kind Kind) (int, error) {
	switch kind {
	case KindText:
		return r.processText(ctx, path)
	case KindImage:
		return r.processImage(ctx, path)
	default:
		return 0, nil
	}
}

func (r *Runner) processText(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Errorf("opening file: %w", err)
	}

	result, err := r.replacer.ReplaceText(ctx, f)
	f.Close()
	if err != nil {
		return 0, err
	}
	if !result.WasModified {
		return 0, nil
	}
	if r.opts.DryRun {
		return result.ReplacementCount, nil
	}

	if err := r.backupIfEnabled(path); err != nil {
		return 0, err
	}

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, result.ModifiedContent, mode); err != nil {
		return 0, errors.Errorf("writing file: %w", err)
	}
	return result.ReplacementCount, nil
}

func (r *Runner) processImage(ctx context.Context, path string) (int, error) {
	if !imagefile.CanEncode(filepath.Ext(path)) {
		return 0, errors.Errorf("no encoder for %q files", filepath.Ext(path))
	}

	img, _, err := imagefile.Decode(path)
	if err != nil {
		return 0, err
	}

	changed := pixel.Replace(img, r.table, r.tolerance)
	if changed == 0 {
		return 0, nil
	}
	if r.opts.DryRun {
		return changed, nil
	}

	if err := r.backupIfEnabled(path); err != nil {
		return 0, err
	}
	if err := imagefile.Encode(path, img); err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *Runner) backupIfEnabled(path string) error {
	if !r.opts.Backup {
		return nil
	}
	return r.backups.Backup(path)
}
