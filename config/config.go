// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package config holds configuration shared across the scan library and CLI.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"runtime"
)

// Config holds the parameters needed to run a scan.
type Config struct {
	// MusicDir is the media root to walk. Missing is tolerated (empty result).
	MusicDir string `json:"musicDir"`
	// ThumbnailDir holds cached cover-art PNGs; created if absent.
	ThumbnailDir string `json:"thumbnailDir"`
	// DatabasePath is the catalog sqlite file used to skip already-known songs.
	DatabasePath string `json:"databasePath"`
	// ArtistSplit separates a tag's artist string into multiple Artist records.
	ArtistSplit string `json:"artistSplit"`
	// Threads bounds the worker pool. Non-positive means runtime.NumCPU().
	Threads int `json:"threads"`
	// Force bypasses the catalog filter, rescanning everything.
	Force bool `json:"force"`
}

// Load JSON-decodes a Config from the file at p.
func Load(p string) (Config, error) {
	var cfg Config
	f, err := os.Open(p)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// check returns an error if required fields are unset.
func (cfg *Config) check() error {
	if cfg.MusicDir == "" {
		return errors.New("musicDir not set")
	}
	if cfg.ThumbnailDir == "" {
		return errors.New("thumbnailDir not set")
	}
	return nil
}

// ResolvedThreads clamps Threads into [1, runtime.NumCPU()], treating a
// non-positive value as runtime.NumCPU().
func (cfg *Config) ResolvedThreads() int {
	n := runtime.NumCPU()
	if cfg.Threads <= 0 {
		return n
	}
	if cfg.Threads > n {
		return n
	}
	return cfg.Threads
}
