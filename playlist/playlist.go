// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package playlist parses extended-M3U-like manifests into a Playlist header
// and the Song entries it references.
package playlist

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/scanerr"
)

// pending accumulates directive-supplied fields that apply to the next
// non-directive entry line, reset after each emitted (or skipped) entry.
type pending struct {
	songType string
	duration float64
	hasDur   bool
	title    string
	artists  string
}

// Parse reads the playlist manifest at path and returns its header plus the
// songs it references, in file order.
func Parse(path string) (model.Playlist, []model.Song, error) {
	pl := model.Playlist{ID: uuid.NewString(), Path: path}

	f, err := os.Open(path)
	if err != nil {
		return pl, nil, scanerr.New(scanerr.IO, err)
	}
	defer f.Close()

	var songs []model.Song
	var p pending

	dir := filepath.Dir(path)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()

		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			if err := parseExtinf(line, &p); err != nil {
				return pl, nil, scanerr.Newf(scanerr.NumericParse,
					"Failed to scan %s: %v", path, err)
			}
		case strings.HasPrefix(line, "#MOOSINF:"):
			p.songType = strings.TrimPrefix(line, "#MOOSINF:")
		case strings.HasPrefix(line, "#PLAYLIST:"):
			pl.Title = strings.TrimPrefix(line, "#PLAYLIST:")
		case strings.HasPrefix(line, "#"):
			// Unrecognized directive: ignored.
		case line == "":
			// Blank line: ignored, doesn't reset pending fields.
		default:
			song, ok := resolveEntry(line, dir, pl.ID, p)
			if ok {
				songs = append(songs, song)
			}
			p = pending{}
		}
	}
	if err := sc.Err(); err != nil {
		return pl, nil, scanerr.New(scanerr.IO, err)
	}

	return pl, songs, nil
}

// parseExtinf parses "#EXTINF:<dur>,<artists> - <title>", splitting the tail
// on the first '-' (with the preceding space dropped) and trimming both
// halves.
func parseExtinf(line string, p *pending) error {
	rest := strings.TrimPrefix(line, "#EXTINF:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return &strconvError{rest}
	}
	durStr := rest[:comma]
	tail := rest[comma+1:]

	dur, err := strconv.ParseFloat(durStr, 64)
	if err != nil {
		return err
	}
	p.duration = dur
	p.hasDur = true

	dash := strings.Index(tail, "-")
	if dash < 0 {
		p.artists = strings.TrimSpace(tail)
		p.title = ""
		return nil
	}
	p.artists = strings.TrimSpace(tail[:dash])
	p.title = strings.TrimSpace(tail[dash+1:])
	return nil
}

type strconvError struct{ s string }

func (e *strconvError) Error() string { return "missing duration separator in " + strconv.Quote(e.s) }

// resolveEntry builds a Song from a non-directive manifest line, applying
// the pending directive fields. Returns ok=false if a local entry's path
// doesn't exist on disk (skipped silently per spec).
func resolveEntry(line, playlistDir, playlistID string, p pending) (model.Song, bool) {
	entry := strings.TrimPrefix(line, "file://")

	song := model.Song{PlaylistID: playlistID}

	if p.hasDur {
		song.Duration = p.duration
	}
	song.Title = p.title
	song.Artists = splitArtists(p.artists)

	if p.songType == "" || p.songType == model.LocalSong {
		full := entry
		if !filepath.IsAbs(full) {
			full = filepath.Join(playlistDir, entry)
		}
		info, err := os.Stat(full)
		if err != nil {
			return model.Song{}, false
		}
		abs, err := filepath.Abs(full)
		if err != nil {
			abs = full
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		song.ID = uuid.NewString()
		song.Path = abs
		song.Size = info.Size()
		song.Type = model.LocalSong
		return song, true
	}

	song.Type = p.songType + ":" + entry
	song.ID = song.Type
	song.PlaybackURL = entry
	return song, true
}

// splitArtists splits s on ";", trimming each piece, one Artist per
// non-empty piece.
func splitArtists(s string) []model.Artist {
	if s == "" {
		return nil
	}
	var artists []model.Artist
	for _, part := range strings.Split(s, ";") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		artists = append(artists, model.Artist{ID: uuid.NewString(), Name: name})
	}
	return artists
}
