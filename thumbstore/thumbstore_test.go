// Copyright 2024 Daniel Erat.
// All rights reserved.

package thumbstore

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func samplePNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestStoreWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	data := samplePNG(t, 200)

	high, low, err := Store(dir, data)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	gotHigh, err := os.ReadFile(high)
	if err != nil {
		t.Fatalf("reading high path: %v", err)
	}
	if !bytes.Equal(gotHigh, data) {
		t.Error("high-res file doesn't match original bytes verbatim")
	}

	f, err := os.Open(low)
	if err != nil {
		t.Fatalf("reading low path: %v", err)
	}
	defer f.Close()
	lowImg, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding low-res PNG: %v", err)
	}
	b := lowImg.Bounds()
	if b.Dx() != LowSize || b.Dy() != LowSize {
		t.Errorf("low-res image is %dx%d, want %dx%d", b.Dx(), b.Dy(), LowSize, LowSize)
	}
}

func TestStoreIdempotent(t *testing.T) {
	dir := t.TempDir()
	data := samplePNG(t, 100)

	high1, low1, err := Store(dir, data)
	if err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	info1, err := os.Stat(high1)
	if err != nil {
		t.Fatal(err)
	}

	high2, low2, err := Store(dir, data)
	if err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	if high1 != high2 || low1 != low2 {
		t.Errorf("paths differ between calls: (%s,%s) vs (%s,%s)", high1, low1, high2, low2)
	}
	info2, err := os.Stat(high2)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("high-res file was rewritten on second Store call")
	}
}

func TestStoreDistinctImagesGetDistinctHashes(t *testing.T) {
	dir := t.TempDir()
	high1, _, err := Store(dir, samplePNG(t, 50))
	if err != nil {
		t.Fatal(err)
	}
	high2, _, err := Store(dir, samplePNG(t, 51))
	if err != nil {
		t.Fatal(err)
	}
	if high1 == high2 {
		t.Error("distinct pictures produced the same content-addressed path")
	}
	if filepath.Dir(high1) != filepath.Clean(dir) {
		t.Errorf("high path %q not under dir %q", high1, dir)
	}
}
