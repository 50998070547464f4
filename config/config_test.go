// Copyright 2024 Daniel Erat.
// All rights reserved.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadValid(t *testing.T) {
	p := writeConfig(t, `{"musicDir":"/music","thumbnailDir":"/thumbs","threads":2}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MusicDir != "/music" || cfg.ThumbnailDir != "/thumbs" || cfg.Threads != 2 {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadMissingMusicDir(t *testing.T) {
	p := writeConfig(t, `{"thumbnailDir":"/thumbs"}`)
	if _, err := Load(p); err == nil {
		t.Error("expected error for missing musicDir, got nil")
	}
}

func TestLoadMissingThumbnailDir(t *testing.T) {
	p := writeConfig(t, `{"musicDir":"/music"}`)
	if _, err := Load(p); err == nil {
		t.Error("expected error for missing thumbnailDir, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	p := writeConfig(t, `{not json`)
	if _, err := Load(p); err == nil {
		t.Error("expected error for malformed JSON, got nil")
	}
}

func TestResolvedThreadsNonPositiveUsesNumCPU(t *testing.T) {
	cfg := Config{Threads: 0}
	if got, want := cfg.ResolvedThreads(), runtime.NumCPU(); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	cfg.Threads = -5
	if got, want := cfg.ResolvedThreads(), runtime.NumCPU(); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestResolvedThreadsClampsToNumCPU(t *testing.T) {
	cfg := Config{Threads: runtime.NumCPU() + 1000}
	if got, want := cfg.ResolvedThreads(), runtime.NumCPU(); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestResolvedThreadsWithinRangeUnchanged(t *testing.T) {
	if runtime.NumCPU() < 1 {
		t.Skip("need at least 1 CPU")
	}
	cfg := Config{Threads: 1}
	if got := cfg.ResolvedThreads(); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestConfigRoundTripsJSON(t *testing.T) {
	cfg := Config{MusicDir: "/m", ThumbnailDir: "/t", DatabasePath: "/d.db", ArtistSplit: ";", Threads: 4, Force: true}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var got Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}
