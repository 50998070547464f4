// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package tagread extracts a model.Song from an audio file's embedded tags,
// using a two-phase probe: first by file signature, then (on failure) by
// file extension.
package tagread

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/scanerr"
	"github.com/cloverstd/mediascan/thumbstore"
)

// Options bundles the per-scan-invocation parameters shared by every job.
type Options struct {
	ThumbnailDir string
	ArtistSplit  string
}

// Read extracts a Song for the audio file at path. It performs the two-phase
// probe described in spec.md §4.3: a signature-based read first, and (only
// on failure) an extension-guessed retry; only the second failure is
// surfaced as an error.
func Read(path string, size int64, playlistID string, opts Options) (*model.Song, error) {
	meta, err := probeBySignature(path)
	if err == tag.ErrNoTagsFound {
		meta, err = nil, nil // untagged file: a valid outcome, not a probe failure
	} else if err != nil {
		meta, err = probeByExtension(path)
		if err == tag.ErrNoTagsFound {
			meta, err = nil, nil
		} else if err != nil {
			return nil, scanerr.New(scanerr.AudioTag, err)
		}
	}

	song := &model.Song{
		ID:         uuid.NewString(),
		Path:       path,
		Size:       size,
		Type:       model.LocalSong,
		PlaylistID: playlistID,
	}

	// Bitrate, sample rate, and duration come from the audio stream itself,
	// not the tag container, so they're extracted unconditionally, whether
	// or not a tag probe above found anything.
	song.Bitrate, song.SampleRate, song.Duration = readAudioProperties(path, size)

	if meta == nil {
		return song, nil
	}

	song.Title = meta.Title()
	if y := meta.Year(); y != 0 {
		song.Year = strconv.Itoa(y)
	}
	if g := meta.Genre(); g != "" {
		song.Genre = []string{g}
	}
	if l := meta.Lyrics(); l != "" {
		song.Lyrics = &l
	}
	if track, _ := meta.Track(); track != 0 {
		song.TrackNum = strconv.Itoa(track)
	}

	if opts.ArtistSplit != "" {
		song.Artists = splitArtists(meta.Artist(), opts.ArtistSplit)
	} else if a := meta.Artist(); a != "" {
		song.Artists = []model.Artist{{ID: uuid.NewString(), Name: a}}
	}

	if alb := meta.Album(); alb != "" {
		song.Album = &model.Album{ID: uuid.NewString(), Name: alb}
	}

	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		high, low, err := thumbstore.Store(opts.ThumbnailDir, pic.Data)
		if err == nil {
			song.HighPath = high
			song.LowPath = low
		}
	} else if cover := findSidecarCover(path); cover != "" {
		song.HighPath = cover
	}

	if song.Album != nil {
		song.Album.HighPath = song.HighPath
		song.Album.LowPath = song.LowPath
	}

	if song.Lyrics == nil {
		if lyrics, ok := readSidecarLyrics(path); ok {
			song.Lyrics = &lyrics
		}
	}

	return song, nil
}

// probeBySignature reads the file's metadata by sniffing its magic bytes,
// mirroring the original scanner's default (non-guessed) probe.
func probeBySignature(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}

// probeByExtension dispatches directly to the tag reader implied by path's
// extension, skipping signature sniffing. This is the fallback phase used
// when a file's magic bytes are missing or atypical.
func probeByExtension(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return tag.ReadFLACTags(f)
	case ".ogg", ".opus":
		return tag.ReadOGGTags(f)
	case ".m4a", ".aac":
		return tag.ReadAtoms(f)
	case ".mp3":
		if m, err := tag.ReadID3v2Tags(f); err == nil {
			return m, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		return tag.ReadID3v1Tags(f)
	default:
		// No extension-specific reader; fall back to the signature-based one.
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		return tag.ReadFrom(f)
	}
}

// readAudioProperties dispatches to a per-format stream decoder to recover
// bitrate, sample rate, and duration directly from the audio data, since
// none of those three live in the tag container. A format it doesn't
// recognize, or a stream it fails to decode, yields all zeros rather than
// an error: a missing property shouldn't fail the whole scan.
func readAudioProperties(path string, size int64) (bitrate, sampleRate int64, duration float64) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return flacProperties(path, size)
	case ".mp3":
		return mp3Properties(path, size)
	case ".ogg":
		return oggVorbisProperties(path, size)
	default:
		return 0, 0, 0
	}
}

// bitrateFromSize estimates an average bitrate from the file's total size
// and decoded duration; none of the three format decoders below expose an
// encoded bitrate directly, so this stands in for all of them.
func bitrateFromSize(size int64, duration float64) int64 {
	if duration <= 0 {
		return 0
	}
	return int64(float64(size*8) / duration)
}

func flacProperties(path string, size int64) (bitrate, sampleRate int64, duration float64) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, 0, 0
	}
	defer stream.Close()

	info := stream.Info
	if info.SampleRate == 0 {
		return 0, 0, 0
	}
	duration = float64(info.NSamples) / float64(info.SampleRate)
	return bitrateFromSize(size, duration), int64(info.SampleRate), duration
}

func mp3Properties(path string, size int64) (bitrate, sampleRate int64, duration float64) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, 0, 0
	}
	if d.SampleRate() == 0 {
		return 0, 0, 0
	}
	// Decoded PCM is 16-bit stereo: 4 bytes per sample frame.
	duration = float64(d.Length()) / 4 / float64(d.SampleRate())
	return bitrateFromSize(size, duration), int64(d.SampleRate()), duration
}

func oggVorbisProperties(path string, size int64) (bitrate, sampleRate int64, duration float64) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return 0, 0, 0
	}
	if r.SampleRate() == 0 {
		return 0, 0, 0
	}
	duration = float64(r.Length()) / float64(r.SampleRate())
	return bitrateFromSize(size, duration), int64(r.SampleRate()), duration
}

// splitArtists splits s on sep, trims each piece, and returns one fresh
// Artist per non-empty piece.
func splitArtists(s, sep string) []model.Artist {
	if s == "" {
		return nil
	}
	var artists []model.Artist
	for _, part := range strings.Split(s, sep) {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		artists = append(artists, model.Artist{ID: uuid.NewString(), Name: name})
	}
	return artists
}

// findSidecarCover looks in audioPath's directory for the first entry whose
// file stem lowercases to something starting with "cover".
func findSidecarCover(audioPath string) string {
	dir := filepath.Dir(audioPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if strings.HasPrefix(strings.ToLower(stem), "cover") {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// lrcTimestamp matches a leading "[MM:SS.hh]"-style lyric timestamp.
var lrcTimestamp = regexp.MustCompile(`^\[\d{2}:\d{2}\.\d{2}\]`)

// readSidecarLyrics reads the <same-name>.lrc file next to audioPath, if any,
// stripping timestamp prefixes from each line. Read errors are swallowed
// (lyrics stay unset); a present-but-empty-after-stripping file yields "".
func readSidecarLyrics(audioPath string) (string, bool) {
	lrcPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".lrc"
	f, err := os.Open(lrcPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := lrcTimestamp.ReplaceAllString(sc.Text(), "")
		lines = append(lines, line)
	}
	if sc.Err() != nil {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
