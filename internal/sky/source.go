// Package sky holds the point-source model: each source carries an ICRS
// position, a Stokes vector, and the equatorial coherency derived from it,
// plus a per-(time, location) cache of its topocentric position.
package sky

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shaoguangleo/uvsim/internal/coord"
)

// ErrInvalidArgument indicates malformed source parameters: non-finite
// angles or a non-positive frequency.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is an immutable sky-model entry. Position fields never change
// after construction; only the topocentric cache mutates, so a Source must
// not be shared across workers (the scatter deep-copies it).
type Source struct {
	Name   string
	RA     float64 // radians, ICRS
	Dec    float64 // radians, ICRS
	FreqHz float64
	Stokes [4]float64 // (I, Q, U, V)

	// CoherencyEq is 0.5 * [[I+Q, U-iV], [U+iV, I-Q]], built once.
	CoherencyEq coord.Jones

	pos positionCache
}

// positionCache holds the time-dependent topocentric position, invalidated
// whenever the observing time or location changes.
type positionCache struct {
	valid bool
	t     time.Time
	loc   coord.Location

	az, za  float64
	l, m, n float64
	up      bool // zenith angle <= 90 degrees
}

// NewSource validates the inputs and precomputes the equatorial coherency.
func NewSource(name string, raRad, decRad, freqHz float64, stokes [4]float64) (*Source, error) {
	if math.IsNaN(raRad) || math.IsInf(raRad, 0) {
		return nil, fmt.Errorf("%w: source %q ra must be a finite angle in radians", ErrInvalidArgument, name)
	}
	if math.IsNaN(decRad) || math.IsInf(decRad, 0) || math.Abs(decRad) > math.Pi/2+1e-12 {
		return nil, fmt.Errorf("%w: source %q dec must be a finite angle in [-π/2, π/2]", ErrInvalidArgument, name)
	}
	if math.IsNaN(freqHz) || freqHz <= 0 {
		return nil, fmt.Errorf("%w: source %q frequency must be positive Hz", ErrInvalidArgument, name)
	}
	for _, s := range stokes {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: source %q stokes vector must be finite", ErrInvalidArgument, name)
		}
	}

	i, q, u, v := stokes[0], stokes[1], stokes[2], stokes[3]
	return &Source{
		Name:   name,
		RA:     raRad,
		Dec:    decRad,
		FreqHz: freqHz,
		Stokes: stokes,
		CoherencyEq: coord.Jones{
			{complex(0.5*(i+q), 0), complex(0.5*u, -0.5*v)},
			{complex(0.5*u, 0.5*v), complex(0.5*(i-q), 0)},
		},
	}, nil
}

// Unpolarized reports whether the source carries no Q/U/V power.
func (s *Source) Unpolarized() bool {
	return math.Abs(s.Stokes[1])+math.Abs(s.Stokes[2])+math.Abs(s.Stokes[3]) == 0
}

// UpdatePosition computes and caches the topocentric position for the given
// time and location. Calling it again with the same arguments is free.
func (s *Source) UpdatePosition(t time.Time, loc coord.Location) {
	if s.pos.valid && s.pos.t.Equal(t) && s.pos.loc.Equal(loc) {
		return
	}

	az, za := coord.EquatorialToHorizon(s.RA, s.Dec, t, loc)
	p := positionCache{valid: true, t: t, loc: loc, az: az, za: za}

	if za <= math.Pi/2 {
		p.up = true
		sinZa := math.Sin(za)
		p.l = math.Sin(az) * sinZa
		p.m = math.Cos(az) * sinZa
		p.n = math.Cos(za)
	}
	s.pos = p
}

// AzZa returns the cached azimuth and zenith angle for (t, loc),
// recomputing if the cache is stale.
func (s *Source) AzZa(t time.Time, loc coord.Location) (az, za float64) {
	s.UpdatePosition(t, loc)
	return s.pos.az, s.pos.za
}

// DirectionCosines returns the (l, m, n) direction cosines for (t, loc).
// ok is false iff the source is below the horizon (zenith angle > 90°);
// such a source contributes zero visibility without erroring.
func (s *Source) DirectionCosines(t time.Time, loc coord.Location) (l, m, n float64, ok bool) {
	s.UpdatePosition(t, loc)
	if !s.pos.up {
		return 0, 0, 0, false
	}
	return s.pos.l, s.pos.m, s.pos.n, true
}

// LocalCoherency rotates the equatorial coherency into the local basis via
// the parallactic rotation. Unpolarized sources skip the rotation: the
// reference convention's matrix is unnormalized, so the skip is what keeps
// an isotropic coherency unchanged.
func (s *Source) LocalCoherency(t time.Time, loc coord.Location) coord.Jones {
	if s.Unpolarized() {
		return s.CoherencyEq
	}
	ha := coord.HourAngle(s.RA, s.Dec, t, loc)
	r := coord.ParallacticRotation(s.Dec, ha, loc.LatRad)
	return coord.RotateCoherency(s.CoherencyEq, r)
}

// Clone returns an independent copy with its own position cache.
func (s *Source) Clone() *Source {
	cp := *s
	return &cp
}
