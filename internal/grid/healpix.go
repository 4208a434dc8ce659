package grid

import (
	"fmt"
	"math"
)

// NewHealpix builds the grid of healpix pixel centers for the given nside in
// the RING ordering scheme. nside must be a positive power of two.
//
// Pixel center formulas follow Górski et al. (2005), "HEALPix: A Framework
// for High-Resolution Discretization and Fast Analysis of Data Distributed
// on the Sphere", matching the reference chealpix pix2ang_ring.
func NewHealpix(nside int) (*Grid, error) {
	if nside < 1 || nside&(nside-1) != 0 {
		return nil, fmt.Errorf("healpix: nside must be a positive power of two, got %d", nside)
	}

	npix := 12 * nside * nside
	g := &Grid{
		Kind:  KindHealpix,
		Nside: nside,
		RA:    make([]float64, npix),
		Dec:   make([]float64, npix),
	}

	for p := 0; p < npix; p++ {
		z, phi := ringPixelCenter(nside, p)
		g.RA[p] = phi
		g.Dec[p] = math.Asin(z)
	}
	return g, nil
}

// ringPixelCenter returns (z = cos θ, φ) for pixel p in RING ordering.
func ringPixelCenter(nside, p int) (z, phi float64) {
	npix := 12 * nside * nside
	ncap := 2 * nside * (nside - 1)

	switch {
	case p < ncap:
		// North polar cap. Rings counted from 1 at the pole.
		ring := (1 + isqrt(1+2*p)) / 2
		inRing := p + 1 - 2*ring*(ring-1)
		z = 1 - float64(ring*ring)/(3*float64(nside*nside))
		phi = (float64(inRing) - 0.5) * math.Pi / (2 * float64(ring))

	case p < npix-ncap:
		// Equatorial belt.
		ip := p - ncap
		ring := ip/(4*nside) + nside
		inRing := ip%(4*nside) + 1
		// Rings alternate in phase by half a pixel width.
		shift := 0.5
		if (ring+nside)&1 == 1 {
			shift = 1.0
		}
		z = float64(2*nside-ring) * 2 / (3 * float64(nside))
		phi = (float64(inRing) - shift) * math.Pi / (2 * float64(nside))

	default:
		// South polar cap, mirror of the north.
		ip := npix - p
		ring := (1 + isqrt(2*ip-1)) / 2
		inRing := 4*ring + 1 - (ip - 2*ring*(ring-1))
		z = -1 + float64(ring*ring)/(3*float64(nside*nside))
		phi = (float64(inRing) - 0.5) * math.Pi / (2 * float64(ring))
	}

	if phi < 0 {
		phi += 2 * math.Pi
	}
	return z, phi
}

// isqrt returns floor(sqrt(n)) exactly for the pixel-count magnitudes used
// here, guarding against float rounding at perfect squares.
func isqrt(n int) int {
	s := int(math.Sqrt(float64(n)))
	for s*s > n {
		s--
	}
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}
