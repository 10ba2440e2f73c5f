// Package telescope holds the static instrument geometry: antennas with ENU
// positions, baselines derived from antenna pairs, and the telescope that
// ties the array location to its beam list.
package telescope

import (
	"fmt"
	"math"
	"time"

	"github.com/shaoguangleo/uvsim/internal/beam"
	"github.com/shaoguangleo/uvsim/internal/coord"
)

// Antenna is one array element. Immutable after construction; Number is the
// unique integer used for stable ordering.
type Antenna struct {
	Name        string
	Number      int
	PositionENU [3]float64 // meters, relative to the array reference point
	BeamID      int        // index into the Telescope's beam list
}

// BeamJones resolves this antenna's beam from the telescope's beam list,
// peak-normalizes it if it has not been already, and evaluates it toward
// (az, za) at freqHz.
func (a *Antenna) BeamJones(tel *Telescope, az, za, freqHz float64) (coord.Jones, error) {
	if a.BeamID < 0 || a.BeamID >= len(tel.Beams) {
		return coord.Jones{}, fmt.Errorf("antenna %q: beam id %d out of range (have %d beams)", a.Name, a.BeamID, len(tel.Beams))
	}
	b := tel.Beams[a.BeamID]
	if err := b.PeakNormalize(); err != nil {
		return coord.Jones{}, fmt.Errorf("antenna %q: %w", a.Name, err)
	}
	j, err := b.Evaluate(az, za, freqHz)
	if err != nil {
		return coord.Jones{}, fmt.Errorf("antenna %q: %w", a.Name, err)
	}
	return j, nil
}

// Baseline is an ordered antenna pair. UVW is the ENU separation
// antenna2 − antenna1; because source direction cosines are computed in the
// same local frame, this vector serves directly as the interferometric
// baseline.
type Baseline struct {
	Antenna1 *Antenna
	Antenna2 *Antenna
	UVW      [3]float64 // meters
}

// NewBaseline derives the baseline vector from the two antennas.
func NewBaseline(a1, a2 *Antenna) *Baseline {
	var uvw [3]float64
	for i := range uvw {
		uvw[i] = a2.PositionENU[i] - a1.PositionENU[i]
	}
	return &Baseline{Antenna1: a1, Antenna2: a2, UVW: uvw}
}

// uvwTol is the baseline vector comparison tolerance in meters.
const uvwTol = 1e-3

// Equal requires matching antenna numbers and numerically close vectors.
func (b *Baseline) Equal(other *Baseline) bool {
	if b.Antenna1.Number != other.Antenna1.Number || b.Antenna2.Number != other.Antenna2.Number {
		return false
	}
	for i := range b.UVW {
		if math.Abs(b.UVW[i]-other.UVW[i]) > uvwTol {
			return false
		}
	}
	return true
}

// Less orders baselines lexicographically by antenna numbers. Used for the
// deterministic task ordering.
func (b *Baseline) Less(other *Baseline) bool {
	if b.Antenna1.Number != other.Antenna1.Number {
		return b.Antenna1.Number < other.Antenna1.Number
	}
	return b.Antenna2.Number < other.Antenna2.Number
}

// UVWWavelengths returns the baseline vector in wavelengths at freqHz.
func (b *Baseline) UVWWavelengths(freqHz float64) [3]float64 {
	scale := freqHz / beam.SpeedOfLight
	return [3]float64{b.UVW[0] * scale, b.UVW[1] * scale, b.UVW[2] * scale}
}

// Telescope names the array and carries its reference location and the
// ordered beam list antennas index into.
type Telescope struct {
	Name     string
	Location coord.Location
	Beams    []beam.Beam
}

// NewTelescope constructs a telescope.
func NewTelescope(name string, loc coord.Location, beams []beam.Beam) *Telescope {
	return &Telescope{Name: name, Location: loc, Beams: beams}
}

// Clone deep-copies the beam list. Each worker must pin its own copy after
// the scatter: peak normalization flips a flag lazily on first use and
// would race on a shared beam.
func (t *Telescope) Clone() *Telescope {
	beams := make([]beam.Beam, len(t.Beams))
	for i, b := range t.Beams {
		beams[i] = b.Clone()
	}
	return &Telescope{Name: t.Name, Location: t.Location, Beams: beams}
}

// ZenithTransit returns an ICRS position sitting at this telescope's zenith
// at the given instant. Convenience for tests and mock catalogs.
func (t *Telescope) ZenithTransit(tm time.Time) (ra, dec float64) {
	return coord.HorizonToEquatorial(0, math.Pi/2, tm, t.Location)
}
