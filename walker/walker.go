// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package walker recursively enumerates a media root, classifying files as
// audio candidates or playlist manifests.
package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/scanerr"
)

// audioExts and playlistExts are matched as a case-insensitive substring of
// the file's extension, per spec.
var audioExts = []string{"flac", "mp3", "ogg", "m4a", "webm", "wav", "wv", "aac", "opus"}
var playlistExts = []string{"m3u", "m3u8"}

func matchesAny(ext string, exts []string) bool {
	ext = strings.ToLower(ext)
	for _, e := range exts {
		if strings.Contains(ext, e) {
			return true
		}
	}
	return false
}

// Walk enumerates root, classifying each regular file it finds. A missing
// root is not an error: an empty FileList is returned. If root is itself a
// regular file, only that file is classified.
func Walk(root string) (model.FileList, error) {
	var list model.FileList

	fi, err := os.Lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return list, nil
		}
		return list, scanerr.New(scanerr.DirectoryWalk, err)
	}

	if !fi.IsDir() {
		classify(root, fi.Size(), &list)
		return list, nil
	}

	if err := walkDir(root, &list); err != nil {
		return model.FileList{}, err
	}
	return list, nil
}

// walkDir recurses into dir, adding audio/playlist entries to list.
// Directory-read failures on dir itself are surfaced; per-entry failures
// (stat errors, unreadable subdirectories) are silently skipped.
func walkDir(dir string, list *model.FileList) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return scanerr.New(scanerr.DirectoryWalk, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			// Per-entry failures below the root are swallowed: a subdirectory
			// that can't be walked is simply skipped.
			_ = walkDir(path, list)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		classify(path, info.Size(), list)
	}
	return nil
}

// classify records path in list's audio or playlist slice based on its
// extension, canonicalizing the path first.
func classify(path string, size int64, list *model.FileList) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	ext := filepath.Ext(path)
	if ext == "" {
		return
	}
	switch {
	case matchesAny(ext, audioExts):
		list.Audio = append(list.Audio, model.AudioFile{Path: abs, Size: size})
	case matchesAny(ext, playlistExts):
		list.Playlists = append(list.Playlists, abs)
	}
}
