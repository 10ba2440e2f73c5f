package beam

import (
	"fmt"

	"github.com/shaoguangleo/uvsim/internal/coord"
)

// Sampler supplies measured or externally tabulated beam responses. The
// backing data format is outside the core; the engine only needs lookups.
type Sampler interface {
	// Sample returns the raw Jones response toward (az, za) at freqHz.
	Sample(az, za, freqHz float64) (coord.Jones, error)

	// PeakResponse returns the maximum scalar response over the table,
	// used for peak normalization.
	PeakResponse() float64
}

// TabulatedBeam wraps a Sampler. Unlike the analytic beams, tabulated data
// is not guaranteed to peak at unity, so PeakNormalize does real work here;
// the normalized flag is set lazily on first use and is the reason beams
// are deep-copied per worker at scatter time.
type TabulatedBeam struct {
	name       string
	sampler    Sampler
	normalized bool
	scale      float64
}

// Tabulated returns a beam backed by the given sampler.
func Tabulated(name string, s Sampler) (*TabulatedBeam, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: tabulated beam %q needs a sampler", ErrMissingParameter, name)
	}
	return &TabulatedBeam{name: name, sampler: s, scale: 1}, nil
}

func (b *TabulatedBeam) Evaluate(az, za, freqHz float64) (coord.Jones, error) {
	j, err := b.sampler.Sample(az, za, freqHz)
	if err != nil {
		return coord.Jones{}, fmt.Errorf("sample beam %q: %w", b.name, err)
	}
	if b.scale != 1 {
		j = j.Scale(complex(b.scale, 0))
	}
	return j, nil
}

func (b *TabulatedBeam) EvaluateGrid(az, za, freqsHz []float64) ([][]coord.Jones, error) {
	return evaluateGrid(b, az, za, freqsHz)
}

// PeakNormalize rescales the response so the tabulated peak is unity.
// Applied at most once.
func (b *TabulatedBeam) PeakNormalize() error {
	if b.normalized {
		return nil
	}
	peak := b.sampler.PeakResponse()
	if peak <= 0 {
		return fmt.Errorf("tabulated beam %q: non-positive peak response %g", b.name, peak)
	}
	b.scale = 1 / peak
	b.normalized = true
	return nil
}

func (b *TabulatedBeam) Clone() Beam {
	cp := *b
	return &cp
}

func (b *TabulatedBeam) Kind() string { return "tabulated" }
