// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package thumbstore is a content-addressed store for cover art thumbnails.
// Cover pictures are hashed with BLAKE3 and written as a high-resolution
// (verbatim) and low-resolution (80x80, nearest-neighbour) PNG pair.
package thumbstore

import (
	"bytes"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lukechampine/blake3"
	"golang.org/x/image/draw"

	"github.com/cloverstd/mediascan/scanerr"
)

// LowSize is the fixed width/height of the low-resolution thumbnail.
const LowSize = 80

// Store writes data (cover picture bytes) into dir, producing a content-addressed
// (high, low) PNG pair. If files for this hash already exist, they are not
// rewritten. Returns the canonical absolute paths of both files.
func Store(dir string, data []byte) (highPath, lowPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", scanerr.New(scanerr.IO, err)
	}

	sum := blake3.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	high := filepath.Join(dir, hash+".png")
	low := filepath.Join(dir, hash+"-low.png")

	if _, err := os.Stat(high); os.IsNotExist(err) {
		if err := os.WriteFile(high, data, 0o644); err != nil {
			return "", "", scanerr.New(scanerr.IO, err)
		}
	}

	if _, err := os.Stat(low); os.IsNotExist(err) {
		if err := writeLow(low, data); err != nil {
			return "", "", err
		}
	}

	highAbs, _ := filepath.Abs(high)
	lowAbs, _ := filepath.Abs(low)
	return highAbs, lowAbs, nil
}

// writeLow decodes data as an image, resizes it to LowSize x LowSize with
// nearest-neighbour sampling, and PNG-encodes the result to path.
func writeLow(path string, data []byte) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return scanerr.New(scanerr.ImageCodec, err)
	}

	sb := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, sb.Min, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, LowSize, LowSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), rgba, rgba.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return scanerr.New(scanerr.IO, err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		return scanerr.New(scanerr.ImageCodec, err)
	}
	return nil
}
