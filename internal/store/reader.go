package store

import (
	"database/sql"
	"fmt"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
)

// Reader provides lookup access to a generated artifact.
type Reader struct {
	db *sql.DB
}

// Open opens an existing artifact for reading.
func Open(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	// Fail fast on a missing or non-artifact file.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM meta").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("not a sky artifact: %w", err)
	}
	return &Reader{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Meta returns all metadata rows.
func (r *Reader) Meta() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// NumSamples returns the number of retained samples.
func (r *Reader) NumSamples() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&n)
	return n, err
}

// BandCounts returns the number of magnitude rows stored per band.
func (r *Reader) BandCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT band, COUNT(*) FROM magnitudes GROUP BY band")
	if err != nil {
		return nil, fmt.Errorf("read band counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			band string
			n    int
		)
		if err := rows.Scan(&band, &n); err != nil {
			return nil, fmt.Errorf("scan band counts: %w", err)
		}
		counts[band] = n
	}
	return counts, rows.Err()
}

// SampleRow is one retained sample's per-timestamp arrays.
type SampleRow struct {
	Idx     int
	Mjd     float64
	SunAlt  float64
	Airmass []float64
	Mask    mask.Mask
}

// Sample reads the retained sample at the given index.
func (r *Reader) Sample(idx int) (*SampleRow, error) {
	var (
		row             SampleRow
		airmassB, maskB []byte
	)
	err := r.db.QueryRow("SELECT idx, mjd, sun_alt, airmass, mask FROM samples WHERE idx = ?", idx).
		Scan(&row.Idx, &row.Mjd, &row.SunAlt, &airmassB, &maskB)
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", idx, err)
	}
	if row.Airmass, err = unpackFloat64s(airmassB); err != nil {
		return nil, fmt.Errorf("sample %d airmass: %w", idx, err)
	}
	row.Mask = unpackMask(maskB)
	return &row, nil
}

// Magnitudes reads one band's magnitude array for the retained sample at idx.
func (r *Reader) Magnitudes(idx int, band string) ([]float64, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT mags FROM magnitudes WHERE idx = ? AND band = ?", idx, band).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("magnitudes %d/%s: %w", idx, band, err)
	}
	return unpackFloat64s(blob)
}

// MJDs returns all retained timestamps in index order.
func (r *Reader) MJDs() ([]float64, error) {
	rows, err := r.db.Query("SELECT mjd FROM samples ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("read mjds: %w", err)
	}
	defer rows.Close()

	var mjds []float64
	for rows.Next() {
		var mjd float64
		if err := rows.Scan(&mjd); err != nil {
			return nil, err
		}
		mjds = append(mjds, mjd)
	}
	return mjds, rows.Err()
}

// Lookup returns the interpolated magnitude for one band and location at an
// arbitrary MJD, plus whether the location is masked at the nearest retained
// sample. MJDs outside the retained range clamp to the first or last sample.
func (r *Reader) Lookup(mjd float64, loc int, band string) (float64, bool, error) {
	mjds, err := r.MJDs()
	if err != nil {
		return 0, false, err
	}
	if len(mjds) == 0 {
		return 0, false, fmt.Errorf("artifact holds no samples")
	}

	// Find the bracketing pair.
	hi := 0
	for hi < len(mjds) && mjds[hi] < mjd {
		hi++
	}

	readAt := func(idx int) (float64, bool, error) {
		mags, err := r.Magnitudes(idx, band)
		if err != nil {
			return 0, false, err
		}
		row, err := r.Sample(idx)
		if err != nil {
			return 0, false, err
		}
		if loc < 0 || loc >= len(mags) {
			return 0, false, fmt.Errorf("location %d out of range (n=%d)", loc, len(mags))
		}
		return mags[loc], row.Mask[loc], nil
	}

	switch {
	case hi == 0:
		return readAt(0)
	case hi == len(mjds):
		return readAt(len(mjds) - 1)
	}

	lo := hi - 1
	loMag, loMasked, err := readAt(lo)
	if err != nil {
		return 0, false, err
	}
	hiMag, hiMasked, err := readAt(hi)
	if err != nil {
		return 0, false, err
	}

	w := (mjd - mjds[lo]) / (mjds[hi] - mjds[lo])
	masked := loMasked
	if w > 0.5 {
		masked = hiMasked
	}
	return (1-w)*loMag + w*hiMag, masked, nil
}
