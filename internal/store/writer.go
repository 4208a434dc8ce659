// Package store persists the retained sample sequence as a single SQLite
// artifact and reads it back for inspection and lookup.
//
// Schema:
//
//	meta(key TEXT PRIMARY KEY, value TEXT)
//	samples(idx INTEGER PRIMARY KEY, mjd REAL, sun_alt REAL, airmass BLOB, mask BLOB)
//	magnitudes(idx INTEGER, band TEXT, mags BLOB, PRIMARY KEY(idx, band))
//
// Array columns hold N little-endian float64 values (airmass, mags) or N
// bytes (mask), where N is the grid size recorded in meta.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/compact"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/grid"
	"github.com/andrewbheyer/sims-skybrightness-pre/internal/sky"
)

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE samples (
	idx     INTEGER PRIMARY KEY,
	mjd     REAL NOT NULL,
	sun_alt REAL NOT NULL,
	airmass BLOB NOT NULL,
	mask    BLOB NOT NULL
);
CREATE TABLE magnitudes (
	idx  INTEGER NOT NULL,
	band TEXT NOT NULL,
	mags BLOB NOT NULL,
	PRIMARY KEY (idx, band)
);
`

// artifactVersion is recorded in meta so readers can detect layout changes.
const artifactVersion = "1"

// Meta describes the run that produced an artifact.
type Meta struct {
	Grid   *grid.Grid
	Params map[string]string // run parameters, stringified
}

// Write creates the artifact at path and stores the retained sequence in a
// single transaction. An existing file at path is an error; the caller
// decides about overwriting. Empty retained sequences still produce a valid
// artifact with populated meta.
func Write(path string, meta Meta, retained []compact.Retained) error {
	db, err := sql.Open("sqlite3", path+"?_journal=MEMORY")
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := writeMeta(tx, meta); err != nil {
		return err
	}

	sampleStmt, err := tx.Prepare("INSERT INTO samples(idx, mjd, sun_alt, airmass, mask) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare samples: %w", err)
	}
	defer sampleStmt.Close()

	magStmt, err := tx.Prepare("INSERT INTO magnitudes(idx, band, mags) VALUES(?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare magnitudes: %w", err)
	}
	defer magStmt.Close()

	for i, r := range retained {
		_, err := sampleStmt.Exec(i, r.Sample.Mjd, r.Sample.SunAlt,
			packFloat64s(r.Sample.Airmass), packMask(r.Mask))
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		for _, band := range sky.Bands {
			if _, err := magStmt.Exec(i, band, packFloat64s(r.Sample.Mags[band])); err != nil {
				return fmt.Errorf("sample %d band %s: %w", i, band, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// writeMeta stores the grid identity, band order, and run parameters.
func writeMeta(tx *sql.Tx, meta Meta) error {
	stmt, err := tx.Prepare("INSERT INTO meta(key, value) VALUES(?, ?)")
	if err != nil {
		return fmt.Errorf("prepare meta: %w", err)
	}
	defer stmt.Close()

	rows := map[string]string{
		"version":      artifactVersion,
		"grid_kind":    string(meta.Grid.Kind),
		"nside":        strconv.Itoa(meta.Grid.Nside),
		"catalog_path": meta.Grid.CatalogPath,
		"n_locations":  strconv.Itoa(meta.Grid.Size()),
		"bands":        strings.Join(sky.Bands, ","),
	}
	for k, v := range meta.Params {
		rows[k] = v
	}

	for k, v := range rows {
		if _, err := stmt.Exec(k, v); err != nil {
			return fmt.Errorf("meta %s: %w", k, err)
		}
	}
	return nil
}
