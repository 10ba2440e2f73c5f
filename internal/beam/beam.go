// Package beam models the directional, frequency-dependent response of an
// antenna as a 2x2 complex Jones matrix. Analytic variants (uniform,
// gaussian, airy) are computed in closed form; tabulated beams delegate to
// externally supplied measured data behind the Sampler interface.
package beam

import (
	"errors"
	"fmt"
	"math"

	"github.com/shaoguangleo/uvsim/internal/coord"
)

// SpeedOfLight is the vacuum speed of light in m/s.
const SpeedOfLight = 299792458.0

// ErrMissingParameter indicates a beam was constructed without a required
// shape parameter.
var ErrMissingParameter = errors.New("missing beam parameter")

// Beam is a queryable antenna response. Implementations are read-only after
// peak normalization; the normalization flag itself is set lazily on first
// use, so beams crossing a worker boundary must be cloned, never shared.
type Beam interface {
	// Evaluate returns the Jones response toward (az, za) radians at the
	// given frequency in Hz.
	Evaluate(az, za, freqHz float64) (coord.Jones, error)

	// EvaluateGrid evaluates every (direction, frequency) pair: the result
	// is indexed [freq][direction]. az and za must have equal length.
	EvaluateGrid(az, za, freqsHz []float64) ([][]coord.Jones, error)

	// PeakNormalize scales the response so the peak is unity. Idempotent.
	PeakNormalize() error

	// Clone returns an independent copy, including normalization state.
	Clone() Beam

	// Kind names the beam variant.
	Kind() string
}

// DiameterToSigma converts an effective dish diameter (meters) to the
// standard deviation (radians of zenith angle) of a gaussian whose FWHM
// matches the main lobe of the equivalent Airy disk at the given frequency:
//
//	σ = arcsin(2.2150894·λ / (π·D)) · 2 / 2.355
//
// The 2.2150894 scalar comes from fitting a gaussian to the Airy pattern.
func DiameterToSigma(diameterM, freqHz float64) float64 {
	wavelength := SpeedOfLight / freqHz
	return math.Asin(2.2150894*wavelength/(math.Pi*diameterM)) * 2 / 2.355
}

// evaluateGrid lifts a scalar Evaluate over direction and frequency grids.
func evaluateGrid(b Beam, az, za, freqsHz []float64) ([][]coord.Jones, error) {
	if len(az) != len(za) {
		return nil, fmt.Errorf("az/za length mismatch: %d != %d", len(az), len(za))
	}
	out := make([][]coord.Jones, len(freqsHz))
	for fi, f := range freqsHz {
		row := make([]coord.Jones, len(az))
		for di := range az {
			j, err := b.Evaluate(az[di], za[di], f)
			if err != nil {
				return nil, err
			}
			row[di] = j
		}
		out[fi] = row
	}
	return out, nil
}
