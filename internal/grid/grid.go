// Package grid supplies the fixed set of sky coordinates at which brightness
// is evaluated. The grid is built once per run and never changes; the index
// into its coordinate slices is the location index used by every sample,
// mask, and artifact row.
package grid

// Kind distinguishes the two supported spatial sampling schemes.
type Kind string

const (
	KindHealpix Kind = "healpix"
	KindCatalog Kind = "catalog"
)

// Grid is an ordered, immutable set of sky coordinates (radians).
type Grid struct {
	Kind        Kind
	Nside       int    // healpix resolution, 0 for catalogs
	CatalogPath string // source file for catalog grids

	RA  []float64
	Dec []float64
}

// Size returns the number of locations.
func (g *Grid) Size() int {
	return len(g.RA)
}
