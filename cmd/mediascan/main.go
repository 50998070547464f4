// Copyright 2024 Daniel Erat.
// All rights reserved.

// Command mediascan indexes a local music library: it walks a directory,
// extracts tags and cover art, resolves playlists, and prints the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage %v: [flag]... <subcommand>\n"+
			"Indexes a local music library.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	configFile := flag.String("config", filepath.Join(os.Getenv("HOME"), ".mediascan/config.json"),
		"Path to JSON config file")

	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&scanCommand{configFile: configFile}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
