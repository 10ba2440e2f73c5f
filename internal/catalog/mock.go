package catalog

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shaoguangleo/uvsim/internal/coord"
	"github.com/shaoguangleo/uvsim/internal/sky"
)

// MockOptions tunes a mock arrangement. Zero values select the
// per-arrangement defaults.
type MockOptions struct {
	// NSrcs applies to the zenith, random and long-line arrangements.
	NSrcs int
	// AltDeg places the off-zenith and triangle arrangements.
	AltDeg float64
	// MinAltDeg bounds the random and long-line arrangements.
	MinAltDeg float64
	// Seed drives the random arrangement.
	Seed int64
	// FreqHz is the reference frequency for every source; defaults to
	// 150 MHz.
	FreqHz float64
}

// Mock generates one of the named point-source arrangements, defined in
// the horizon frame of loc at time t and converted to fixed ICRS
// positions. All sources are flat-spectrum Stokes I.
//
// Arrangements: "zenith" (N sources stacked at the zenith, flux 1/N),
// "off-zenith" (one source due east), "cross", "triangle" (three sources
// around the zenith), "long-line" (a meridian line from horizon to
// horizon), "random" (seeded, uniform above MinAltDeg).
func Mock(arrangement string, t time.Time, loc coord.Location, opts MockOptions) ([]*sky.Source, error) {
	freq := opts.FreqHz
	if freq <= 0 {
		freq = 150e6
	}

	var alts, azs, fluxes []float64
	switch arrangement {
	case "zenith":
		n := opts.NSrcs
		if n <= 0 {
			n = 1
		}
		alts = make([]float64, n)
		azs = make([]float64, n)
		fluxes = make([]float64, n)
		for i := range alts {
			alts[i] = 90
			fluxes[i] = 1 / float64(n)
		}

	case "off-zenith":
		alt := opts.AltDeg
		if alt == 0 {
			alt = 85
		}
		alts = []float64{alt}
		azs = []float64{90}
		fluxes = []float64{1}

	case "triangle":
		alt := opts.AltDeg
		if alt == 0 {
			alt = 87
		}
		alts = []float64{alt, alt, alt}
		azs = []float64{0, 120, 240}
		fluxes = []float64{1, 1, 1}

	case "cross":
		alts = []float64{88, 90, 86, 82}
		azs = []float64{270, 0, 90, 135}
		fluxes = []float64{5, 4, 1, 2}

	case "long-line":
		alts, azs, fluxes = longLine(opts)

	case "random":
		n := opts.NSrcs
		if n <= 0 {
			n = 1
		}
		minAlt := opts.MinAltDeg
		if minAlt == 0 {
			minAlt = 30
		}
		rng := rand.New(rand.NewSource(opts.Seed))
		alts = make([]float64, n)
		azs = make([]float64, n)
		fluxes = make([]float64, n)
		for i := range alts {
			alts[i] = minAlt + rng.Float64()*(90-minAlt)
			azs[i] = rng.Float64() * 360
			fluxes[i] = 1
		}

	default:
		return nil, fmt.Errorf("%w: unknown mock arrangement %q", sky.ErrInvalidArgument, arrangement)
	}

	sources := make([]*sky.Source, len(alts))
	for i := range alts {
		ra, dec := coord.HorizonToEquatorial(azs[i]*degToRad, alts[i]*degToRad, t, loc)
		src, err := sky.NewSource(fmt.Sprintf("src%d", i), ra, dec, freq, [4]float64{fluxes[i], 0, 0, 0})
		if err != nil {
			return nil, fmt.Errorf("mock arrangement %q: %w", arrangement, err)
		}
		sources[i] = src
	}
	return sources, nil
}

// linspace returns element i of count evenly spaced values from lo to hi
// inclusive.
func linspace(lo, hi float64, count, i int) float64 {
	if count <= 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(count-1)
}

// longLine lays sources along the meridian from the southern horizon,
// through the zenith, down to the northern horizon. An even count
// straddles the zenith symmetrically; an odd count puts its middle source
// exactly at the zenith.
func longLine(opts MockOptions) (alts, azs, fluxes []float64) {
	n := opts.NSrcs
	if n <= 0 {
		n = 10
	}
	minAlt := opts.MinAltDeg
	if minAlt == 0 {
		minAlt = 5
	}

	fluxes = make([]float64, n)
	for i := range fluxes {
		fluxes[i] = 1
	}
	azs = make([]float64, n)
	alts = make([]float64, n)

	if n%2 == 0 {
		spacing := (180 - minAlt*2) / float64(n-1)
		maxAlt := 90 - spacing/2
		for i := 0; i < n/2; i++ {
			alts[i] = linspace(minAlt, maxAlt, n/2, i)
			alts[n-1-i] = alts[i]
			azs[i] = 180
		}
		return alts, azs, fluxes
	}

	half := (n + 1) / 2
	for i := 0; i < half; i++ {
		alts[i] = linspace(minAlt, 90, half, i)
		alts[n-1-i] = alts[i]
		azs[i] = 180
	}
	return alts, azs, fluxes
}
