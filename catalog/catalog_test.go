// Copyright 2024 Daniel Erat.
// All rights reserved.

package catalog

import (
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cloverstd/mediascan/model"
)

func setupDB(t *testing.T, rows []key) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE allsongs (path TEXT, size INTEGER)`); err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO allsongs (path, size) VALUES (?, ?)`, r.path, r.size); err != nil {
			t.Fatal(err)
		}
	}
	return dbPath
}

func TestFilterEmptyCandidatesSkipsQuery(t *testing.T) {
	dbPath := setupDB(t, nil)
	got, err := Filter(dbPath, nil)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestFilterExcludesKnownPairs(t *testing.T) {
	known, err := filepath.Abs("known.mp3")
	if err != nil {
		t.Fatal(err)
	}
	dbPath := setupDB(t, []key{{known, 100}})

	candidates := []model.AudioFile{
		{Path: "known.mp3", Size: 100},
		{Path: "new.mp3", Size: 200},
	}
	got, err := Filter(dbPath, candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0].Path) != "new.mp3" {
		t.Errorf("got %+v, want only new.mp3", got)
	}
}

func TestFilterSameSizeDifferentPathStillNew(t *testing.T) {
	known, err := filepath.Abs("known.mp3")
	if err != nil {
		t.Fatal(err)
	}
	dbPath := setupDB(t, []key{{known, 100}})

	candidates := []model.AudioFile{{Path: "other.mp3", Size: 100}}
	got, err := Filter(dbPath, candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1 (same size, different path is still new)", len(got))
	}
}

func TestFilterDedupesCandidates(t *testing.T) {
	dbPath := setupDB(t, nil)
	candidates := []model.AudioFile{
		{Path: "a.mp3", Size: 10},
		{Path: "a.mp3", Size: 10},
	}
	got, err := Filter(dbPath, candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1 (duplicate candidate should collapse)", len(got))
	}
}

// TestFilterBatchesAcrossMaxClauses exercises the multi-statement path: with
// more than maxClauses candidates, Filter must issue more than one prepared
// statement and still return the full correct set-difference.
func TestFilterBatchesAcrossMaxClauses(t *testing.T) {
	const n = maxClauses + 50

	var known []key
	var candidates []model.AudioFile
	for i := 0; i < n; i++ {
		path := filepath.Join("lib", strconv.Itoa(i)+".mp3")
		abs, err := filepath.Abs(path)
		if err != nil {
			t.Fatal(err)
		}
		if i%2 == 0 {
			known = append(known, key{abs, int64(i)})
		}
		candidates = append(candidates, model.AudioFile{Path: path, Size: int64(i)})
	}
	dbPath := setupDB(t, known)

	got, err := Filter(dbPath, candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	wantCount := n - len(known)
	if len(got) != wantCount {
		t.Errorf("got %d new candidates, want %d", len(got), wantCount)
	}
}
