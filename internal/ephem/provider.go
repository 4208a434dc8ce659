// Package ephem provides positions and altitudes of solar system bodies
// as seen from a fixed observing site.
package ephem

import (
	"fmt"
	"math"
)

// Body identifies a solar system body the generator cares about.
type Body int

const (
	Sun Body = iota
	Moon
	Venus
	Mars
	Jupiter
	Saturn
)

// String returns the body name for logging and artifact metadata.
func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	case Venus:
		return "venus"
	case Mars:
		return "mars"
	case Jupiter:
		return "jupiter"
	case Saturn:
		return "saturn"
	default:
		return "unknown"
	}
}

// AvoidancePlanets are the bodies checked by the validity mask builder.
var AvoidancePlanets = []Body{Venus, Mars, Jupiter, Saturn}

// Site is an observing location (geodetic, radians / meters).
type Site struct {
	LatRad  float64
	LonRad  float64 // east positive
	HeightM float64
}

// NewSite creates a Site from degrees and meters.
func NewSite(latDeg, lonDeg, heightM float64) Site {
	return Site{
		LatRad:  latDeg * math.Pi / 180,
		LonRad:  lonDeg * math.Pi / 180,
		HeightM: heightM,
	}
}

// Provider supplies apparent positions and altitudes of bodies at a given MJD.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Position returns geocentric apparent equatorial coordinates in radians.
	Position(b Body, mjd float64) (ra, dec float64, err error)

	// Altitude returns the body's altitude above the horizon in radians
	// as seen from the provider's site.
	Altitude(b Body, mjd float64) (float64, error)
}

// errUnknownBody builds the shared unknown-body error.
func errUnknownBody(b Body) error {
	return fmt.Errorf("ephem: unknown body %d", int(b))
}
