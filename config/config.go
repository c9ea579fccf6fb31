// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads per-project analysis settings.
//
// A project may carry a callgraph.config.yaml at its root with default
// filter toggles, ignore patterns, and depth/width limits. Command-line
// flags always win over file values; the file only fills in what the
// invocation left unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file looked up at the
// analyzed root.
const FileName = "callgraph.config.yaml"

// Config holds per-project analysis settings.
//
// Boolean toggles are pointers so an absent key can be told apart from
// an explicit false.
type Config struct {
	// Depth is the default nesting depth limit. 0 = unbounded.
	Depth int `yaml:"depth"`

	// Width is the default per-caller outgoing call cap. 0 = unbounded.
	Width int `yaml:"width"`

	// Format is the default output format name.
	Format string `yaml:"format"`

	// Output is the default output file path.
	Output string `yaml:"output"`

	// IgnoreStdlib removes standard library calls. Defaults to true
	// when absent.
	IgnoreStdlib *bool `yaml:"ignoreStdlib"`

	// IgnoreNPM removes calls into npm dependencies. Defaults to true
	// when absent.
	IgnoreNPM *bool `yaml:"ignoreNpm"`

	// IgnoreJSR removes calls into jsr dependencies. Defaults to true
	// when absent.
	IgnoreJSR *bool `yaml:"ignoreJsr"`

	// IgnorePatterns holds extra user ignore patterns (regex, with
	// substring fallback for patterns that fail to compile).
	IgnorePatterns []string `yaml:"ignore"`
}

// Load reads the project configuration from the analyzed root.
//
// Description:
//
//	Looks for callgraph.config.yaml in root (or root's directory when
//	root is a file). A missing file yields an empty Config and no
//	error. A file that fails to parse is logged and ignored; a broken
//	config never sinks an analysis run.
func Load(root string) *Config {
	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}

	path := filepath.Join(root, FileName)
	cfg, err := LoadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config file ignored",
				"path", path,
				"error", err,
			)
		}
		return &Config{}
	}
	return cfg
}

// LoadFile reads and parses a specific configuration file.
//
// Outputs:
//
//	*Config - The parsed configuration. Never nil on success.
//	error - fs.ErrNotExist when absent, or a parse error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	slog.Debug("project config loaded", "path", path)
	return &cfg, nil
}

// BoolOr returns the pointed-to value, or fallback when unset.
func BoolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
