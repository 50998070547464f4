// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package scan sequences the path walker, catalog filter, playlist parser,
// and metadata reader into a single library call that streams results to
// the caller via callbacks, all delivered from one orchestrator goroutine.
package scan

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/cloverstd/mediascan/catalog"
	"github.com/cloverstd/mediascan/config"
	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/playlist"
	"github.com/cloverstd/mediascan/scanerr"
	"github.com/cloverstd/mediascan/tagread"
	"github.com/cloverstd/mediascan/walker"
)

// SongCallback is invoked once per emitted song, carrying its position
// (current, 1-based) and the total song count (size) for the whole scan.
type SongCallback func(song *model.Song, err error, size, current int)

// PlaylistCallback is invoked once per playlist header, in traversal order.
type PlaylistCallback func(pl *model.Playlist, err error)

// EndCallback is invoked exactly once, after every other callback, carrying
// the first fatal error encountered (if any).
type EndCallback func(err error)

// job is a unit of pool work: extract metadata for one audio file.
type job struct {
	path       string
	size       int64
	playlistID string
}

// songResult and playlistResult are what producers send over the unbuffered
// result channels; the orchestrator goroutine is the only reader of either,
// so it's the only thing that ever calls onSong/onPlaylist.
type songResult struct {
	song    *model.Song
	err     error
	size    int
	current int
}

type playlistResult struct {
	pl  *model.Playlist
	err error
}

// Scan walks cfg.MusicDir, filters against the catalog, parses playlists,
// and extracts metadata for every remaining audio file, delivering results
// through the supplied callbacks. It runs on a dedicated goroutine and
// returns immediately; onEnd fires once every producer has finished.
func Scan(cfg config.Config, onSong SongCallback, onPlaylist PlaylistCallback, onEnd EndCallback) {
	go run(cfg, onSong, onPlaylist, onEnd)
}

func run(cfg config.Config, onSong SongCallback, onPlaylist PlaylistCallback, onEnd EndCallback) {
	if err := os.MkdirAll(cfg.ThumbnailDir, 0o755); err != nil {
		onEnd(scanerr.New(scanerr.IO, err))
		return
	}

	fileList, err := walker.Walk(cfg.MusicDir)
	if err != nil {
		onEnd(err)
		return
	}

	audio := fileList.Audio
	if !cfg.Force {
		filtered, err := catalog.Filter(cfg.DatabasePath, audio)
		if err != nil {
			onEnd(err)
			return
		}
		audio = filtered
	}

	songCh := make(chan songResult)
	playlistCh := make(chan playlistResult)
	go produce(cfg, fileList.Playlists, audio, songCh, playlistCh)

	// The orchestrator is the sole consumer of both channels: every onSong
	// and onPlaylist call below happens on this one goroutine, so callers
	// (like a shared json.Encoder in a CLI) never see concurrent callbacks.
	for songCh != nil || playlistCh != nil {
		select {
		case r, ok := <-songCh:
			if !ok {
				songCh = nil
				continue
			}
			onSong(r.song, r.err, r.size, r.current)
		case r, ok := <-playlistCh:
			if !ok {
				playlistCh = nil
				continue
			}
			onPlaylist(r.pl, r.err)
		}
	}

	onEnd(nil)
}

// produce parses every playlist, dispatches all local songs (top-level audio
// and playlist-resolved) to a bounded worker pool, and forwards every result
// to songCh/playlistCh. It closes playlistCh once every header has been
// sent, and songCh once every song (local or external) has been sent.
func produce(cfg config.Config, playlistPaths []string, audio []model.AudioFile, songCh chan<- songResult, playlistCh chan<- playlistResult) {
	type parsedPlaylist struct {
		pl    model.Playlist
		songs []model.Song
	}
	var playlists []parsedPlaylist
	total := len(audio)
	for _, p := range playlistPaths {
		pl, songs, err := playlist.Parse(p)
		if err != nil {
			playlistCh <- playlistResult{err: err}
			continue
		}
		playlists = append(playlists, parsedPlaylist{pl, songs})
		total += len(songs)
	}

	opts := tagread.Options{ThumbnailDir: cfg.ThumbnailDir, ArtistSplit: cfg.ArtistSplit}

	threads := cfg.ResolvedThreads()
	jobs := make(chan job, threads)
	var current int64
	var wg sync.WaitGroup

	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				song, err := tagread.Read(j.path, j.size, j.playlistID, opts)
				cur := atomic.AddInt64(&current, 1)
				songCh <- songResult{song: song, err: err, size: total, current: int(cur)}
			}
		}()
	}

	for _, pp := range playlists {
		pl := pp.pl
		playlistCh <- playlistResult{pl: &pl}
		for _, s := range pp.songs {
			if s.Type == model.LocalSong {
				jobs <- job{path: s.Path, size: s.Size, playlistID: pp.pl.ID}
			} else {
				s := s
				cur := atomic.AddInt64(&current, 1)
				songCh <- songResult{song: &s, size: total, current: int(cur)}
			}
		}
	}
	close(playlistCh)

	for _, a := range audio {
		jobs <- job{path: a.Path, size: a.Size}
	}
	close(jobs)

	wg.Wait()
	close(songCh)
}
