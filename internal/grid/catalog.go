package grid

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadCatalog reads a field catalog from a pipe-delimited file with a header
// line and `id|ra|dec` rows (ra/dec in degrees). Malformed rows are logged
// and skipped; an empty catalog is an error.
func LoadCatalog(path string, logger *slog.Logger) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("field catalog: %w", err)
	}
	defer f.Close()

	g := &Grid{
		Kind:        KindCatalog,
		CatalogPath: path,
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	var skipped int
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 || line == "" {
			// Header or blank line.
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 3 {
			logger.Warn("skipping malformed catalog row", "line", lineNo, "fields", len(fields))
			skipped++
			continue
		}

		raDeg, err1 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		decDeg, err2 := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err1 != nil || err2 != nil {
			logger.Warn("skipping unparseable catalog row", "line", lineNo)
			skipped++
			continue
		}

		g.RA = append(g.RA, raDeg*math.Pi/180)
		g.Dec = append(g.Dec, decDeg*math.Pi/180)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("field catalog: %w", err)
	}
	if g.Size() == 0 {
		return nil, fmt.Errorf("field catalog %s: no usable rows", path)
	}

	logger.Info("field catalog loaded", "path", path, "fields", g.Size(), "skipped", skipped)
	return g, nil
}
