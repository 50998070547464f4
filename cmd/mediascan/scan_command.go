// Copyright 2024 Daniel Erat.
// All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/subcommands"

	"github.com/cloverstd/mediascan/config"
	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/scan"
)

// scanCommand is the "scan" subcommand: it loads the JSON config and runs a
// full library scan, printing songs and playlists as they're discovered.
type scanCommand struct {
	configFile *string

	dryRun bool // print JSON instead of a one-line summary per song
	force  bool // bypass the catalog filter
}

func (*scanCommand) Name() string     { return "scan" }
func (*scanCommand) Synopsis() string { return "scan a music library and print results" }
func (*scanCommand) Usage() string {
	return `scan [flags]:
	Walk the configured music directory, extract metadata and cover art,
	resolve playlists, and print each song and playlist as it's found.

`
}

func (cmd *scanCommand) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dryRun, "dry-run", false, "Print full JSON for each song instead of a summary line")
	f.BoolVar(&cmd.force, "force", false, "Bypass the catalog filter and rescan everything")
}

func (cmd *scanCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(*cmd.configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed loading config:", err)
		return subcommands.ExitUsageError
	}
	if cmd.force {
		cfg.Force = true
	}

	var wg sync.WaitGroup
	wg.Add(1)

	var scanErr error
	enc := json.NewEncoder(os.Stdout)

	scan.Scan(cfg, func(s *model.Song, err error, size, current int) {
		if err != nil {
			log.Printf("[%d/%d] error: %v", current, size, err)
			return
		}
		if cmd.dryRun {
			if encErr := enc.Encode(s); encErr != nil {
				log.Printf("Failed encoding song: %v", encErr)
			}
			return
		}
		log.Printf("[%d/%d] %s (%s)", current, size, s.Title, s.Path)
	}, func(pl *model.Playlist, err error) {
		if err != nil {
			log.Printf("playlist error: %v", err)
			return
		}
		log.Printf("playlist %q (%s)", pl.Title, pl.Path)
	}, func(err error) {
		scanErr = err
		wg.Done()
	})

	wg.Wait()
	if scanErr != nil {
		fmt.Fprintln(os.Stderr, "Scan failed:", scanErr)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
