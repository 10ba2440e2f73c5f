package beam

import (
	"fmt"
	"math"

	"github.com/shaoguangleo/uvsim/internal/coord"
)

// UniformBeam has unit response in every direction at every frequency.
type UniformBeam struct{}

// Uniform returns the unit-response beam.
func Uniform() *UniformBeam { return &UniformBeam{} }

func (b *UniformBeam) Evaluate(az, za, freqHz float64) (coord.Jones, error) {
	return coord.IdentityJones, nil
}

func (b *UniformBeam) EvaluateGrid(az, za, freqsHz []float64) ([][]coord.Jones, error) {
	return evaluateGrid(b, az, za, freqsHz)
}

// PeakNormalize is a no-op: the uniform response already peaks at unity.
func (b *UniformBeam) PeakNormalize() error { return nil }

func (b *UniformBeam) Clone() Beam { return &UniformBeam{} }

func (b *UniformBeam) Kind() string { return "uniform" }

// GaussianBeam falls off with zenith angle as exp(-za²/(2σ²)). The width is
// either fixed (sigma in radians) or derived per frequency from an
// effective dish diameter.
type GaussianBeam struct {
	sigma    float64 // radians; 0 means derive from diameter
	diameter float64 // meters; 0 means use sigma
}

// Gaussian returns an achromatic gaussian beam with the given e-field
// standard deviation in radians of zenith angle.
func Gaussian(sigmaRad float64) (*GaussianBeam, error) {
	if sigmaRad <= 0 {
		return nil, fmt.Errorf("%w: gaussian beam needs sigma (radians) or a dish diameter", ErrMissingParameter)
	}
	return &GaussianBeam{sigma: sigmaRad}, nil
}

// GaussianDish returns a gaussian beam whose width is derived from a dish
// diameter in meters, making it chromatic.
func GaussianDish(diameterM float64) (*GaussianBeam, error) {
	if diameterM <= 0 {
		return nil, fmt.Errorf("%w: gaussian beam needs sigma (radians) or a dish diameter", ErrMissingParameter)
	}
	return &GaussianBeam{diameter: diameterM}, nil
}

func (b *GaussianBeam) Evaluate(az, za, freqHz float64) (coord.Jones, error) {
	sigma := b.sigma
	if b.diameter > 0 {
		sigma = DiameterToSigma(b.diameter, freqHz)
	}
	v := math.Exp(-(za * za) / (2 * sigma * sigma))
	return coord.IdentityJones.Scale(complex(v, 0)), nil
}

func (b *GaussianBeam) EvaluateGrid(az, za, freqsHz []float64) ([][]coord.Jones, error) {
	return evaluateGrid(b, az, za, freqsHz)
}

// PeakNormalize is a no-op: the gaussian peaks at unity at the zenith.
func (b *GaussianBeam) PeakNormalize() error { return nil }

func (b *GaussianBeam) Clone() Beam {
	cp := *b
	return &cp
}

func (b *GaussianBeam) Kind() string { return "gaussian" }

// AiryBeam is the normalized first-order Bessel (Airy) pattern of a
// circular aperture: 2·J1(x)/x with x = (D/2)·sin(za)·2π·f/c, and exactly 1
// in the x→0 limit.
type AiryBeam struct {
	diameter float64 // meters
}

// Airy returns an Airy-pattern beam for a dish of the given diameter in
// meters.
func Airy(diameterM float64) (*AiryBeam, error) {
	if diameterM <= 0 {
		return nil, fmt.Errorf("%w: airy beam needs a dish diameter in meters", ErrMissingParameter)
	}
	return &AiryBeam{diameter: diameterM}, nil
}

func (b *AiryBeam) Evaluate(az, za, freqHz float64) (coord.Jones, error) {
	x := b.diameter / 2 * math.Sin(za) * 2 * math.Pi * freqHz / SpeedOfLight
	v := 1.0
	if x != 0 {
		v = 2 * math.J1(x) / x
	}
	return coord.IdentityJones.Scale(complex(v, 0)), nil
}

func (b *AiryBeam) EvaluateGrid(az, za, freqsHz []float64) ([][]coord.Jones, error) {
	return evaluateGrid(b, az, za, freqsHz)
}

// PeakNormalize is a no-op: the Airy pattern peaks at unity on axis.
func (b *AiryBeam) PeakNormalize() error { return nil }

func (b *AiryBeam) Clone() Beam {
	cp := *b
	return &cp
}

func (b *AiryBeam) Kind() string { return "airy" }
