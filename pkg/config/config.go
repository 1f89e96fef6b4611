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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for options-file parsers
type Parser interface {
	// 📝 Parse parses options from bytes
	Parse(ctx context.Context, data []byte) (*FileOptions, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Options is the complete run configuration
type Options struct {
	MapFile         string   // path to the colors map file
	Root            string   // root directory to scan
	Fuzz            float64  // fuzz tolerance percent for images
	DryRun          bool     // report changes without writing
	Backup          bool     // create timestamped backups before overwriting
	IgnorePatterns  []string // doublestar globs, matched against root-relative paths
	TextExtensions  []string // extra text/markup extensions, additive to the built-ins
	ImageExtensions []string // extra raster image extensions, additive to the built-ins
}

// 🏭 DefaultOptions returns the built-in defaults
func DefaultOptions() Options {
	return Options{
		MapFile: "colors.map",
		Root:    ".",
		Fuzz:    6.0,
	}
}

// 📦 FileOptions mirrors Options with pointer fields so an absent key can be
// told apart from an explicit zero value when merging over defaults.
type FileOptions struct {
	MapFile         *string  `json:"map_file,omitempty" yaml:"map_file,omitempty" hcl:"map_file,optional"`
	Root            *string  `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	Fuzz            *float64 `json:"fuzz,omitempty" yaml:"fuzz,omitempty" hcl:"fuzz,optional"`
	DryRun          *bool    `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Backup          *bool    `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,optional"`
	IgnorePatterns  []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"`
	TextExtensions  []string `json:"text_extensions,omitempty" yaml:"text_extensions,omitempty" hcl:"text_extensions,optional"`
	ImageExtensions []string `json:"image_extensions,omitempty" yaml:"image_extensions,omitempty" hcl:"image_extensions,optional"`
}

// 🔀 merge applies every present file value onto opts
func (f *FileOptions) merge(opts *Options) {
	if f.MapFile != nil {
		opts.MapFile = *f.MapFile
	}
	if f.Root != nil {
		opts.Root = *f.Root
	}
	if f.Fuzz != nil {
		opts.Fuzz = *f.Fuzz
	}
	if f.DryRun != nil {
		opts.DryRun = *f.DryRun
	}
	if f.Backup != nil {
		opts.Backup = *f.Backup
	}
	opts.IgnorePatterns = append(opts.IgnorePatterns, f.IgnorePatterns...)
	opts.TextExtensions = append(opts.TextExtensions, f.TextExtensions...)
	opts.ImageExtensions = append(opts.ImageExtensions, f.ImageExtensions...)
}

// 🎯 Load reads an options file and merges it over the defaults
func Load(ctx context.Context, path string) (Options, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading options file")

	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Errorf("reading options file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return opts, errors.Errorf("no parser found for file: %s", path)
	}

	parsed, err := p.Parse(ctx, data)
	if err != nil {
		return opts, errors.Errorf("parsing options: %w", err)
	}
	parsed.merge(&opts)

	if err := opts.Validate(); err != nil {
		return opts, errors.Errorf("validating options: %w", err)
	}
	return opts, nil
}

// 🔍 Validate checks that the options are usable
func (opts *Options) Validate() error {
	if opts.MapFile == "" {
		return errors.Errorf("map_file is required")
	}
	if opts.Root == "" {
		return errors.Errorf("root is required")
	}
	if opts.Fuzz < 0 || opts.Fuzz > 100 {
		return errors.Errorf("fuzz must be between 0 and 100, got %v", opts.Fuzz)
	}
	return nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*FileOptions, error) {
	var f FileOptions
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &f, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".json")
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*FileOptions, error) {
	var f FileOptions
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &f, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*FileOptions, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "recolor.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var f FileOptions
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &f)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &f, nil
}
