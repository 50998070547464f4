// Copyright 2024 Daniel Erat.
// All rights reserved.

// Package catalog computes the subset of discovered (path, size) pairs not
// already present in an external "allsongs" sqlite table.
package catalog

import (
	"database/sql"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cloverstd/mediascan/model"
	"github.com/cloverstd/mediascan/scanerr"
)

// maxClauses bounds the number of OR-clauses (and therefore 2*maxClauses
// bindings) per prepared statement.
const maxClauses = 998

type key struct {
	path string
	size int64
}

// Filter returns the subset of candidates whose (canonical path, size) is
// not present in the allsongs table at dbPath. Candidates are deduped
// before querying; the returned slice has no particular order.
func Filter(dbPath string, candidates []model.AudioFile) ([]model.AudioFile, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	set := make(map[key]model.AudioFile, len(candidates))
	for _, c := range candidates {
		abs := c.Path
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
		set[key{abs, c.Size}] = model.AudioFile{Path: abs, Size: c.Size}
	}

	keys := make([]key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, scanerr.New(scanerr.Catalog, err)
	}
	defer db.Close()

	present := make(map[key]struct{}, len(keys))
	for start := 0; start < len(keys); start += maxClauses {
		end := start + maxClauses
		if end > len(keys) {
			end = len(keys)
		}
		if err := queryBatch(db, keys[start:end], present); err != nil {
			return nil, err
		}
	}

	result := make([]model.AudioFile, 0, len(set)-len(present))
	for k, v := range set {
		if _, ok := present[k]; !ok {
			result = append(result, v)
		}
	}
	return result, nil
}

// queryBatch runs one prepared statement covering batch, adding every
// matching (path, size) pair to present.
func queryBatch(db *sql.DB, batch []key, present map[key]struct{}) error {
	var sb strings.Builder
	sb.WriteString("SELECT path, size FROM allsongs WHERE ")
	args := make([]interface{}, 0, len(batch)*2)
	for i, k := range batch {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(path = ? AND size = ?)")
		args = append(args, k.path, k.size)
	}

	stmt, err := db.Prepare(sb.String())
	if err != nil {
		return scanerr.New(scanerr.Catalog, err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return scanerr.New(scanerr.Catalog, err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var size int64
		if err := rows.Scan(&path, &size); err != nil {
			return scanerr.New(scanerr.Catalog, err)
		}
		present[key{path, size}] = struct{}{}
	}
	return rows.Err()
}
