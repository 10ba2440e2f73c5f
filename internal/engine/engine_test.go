package engine

import (
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaoguangleo/uvsim/internal/beam"
	"github.com/shaoguangleo/uvsim/internal/coord"
	"github.com/shaoguangleo/uvsim/internal/sky"
	"github.com/shaoguangleo/uvsim/internal/task"
	"github.com/shaoguangleo/uvsim/internal/telescope"
)

func heraSite() coord.Location {
	return coord.NewLocation(-(30 + 43/60.0 + 17.5/3600.0), 21+25/60.0+41.9/3600.0, 1073)
}

// zenithTask builds the reference scenario: a single 1 Jy Stokes-I source
// at the zenith, uniform beam, one 5 m east-west baseline, 150 MHz.
func zenithTask(t *testing.T) *task.UVTask {
	t.Helper()
	loc := heraSite()
	tm := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)

	tel := telescope.NewTelescope("test", loc, []beam.Beam{beam.Uniform()})
	ra, dec := tel.ZenithTransit(tm)
	src, err := sky.NewSource("zenith", ra, dec, 150e6, [4]float64{1, 0, 0, 0})
	require.NoError(t, err)

	a1 := &telescope.Antenna{Name: "ant0", Number: 0, PositionENU: [3]float64{0, 0, 0}}
	a2 := &telescope.Antenna{Name: "ant1", Number: 1, PositionENU: [3]float64{5, 0, 0}}

	return &task.UVTask{
		Source:    src,
		Time:      tm,
		FreqHz:    150e6,
		Baseline:  telescope.NewBaseline(a1, a2),
		Telescope: tel,
		Dest:      task.DestIndex{},
	}
}

func TestMakeVisibility_ZenithReference(t *testing.T) {
	// Half of the total intensity lands in each polarization, with no
	// fringe phase for a source at the phase center of an east-west
	// baseline (dot product with (0,0,1) vanishes).
	eng := New(zenithTask(t))
	vis, err := eng.MakeVisibility()
	require.NoError(t, err)

	assert.InDelta(t, 0.5, real(vis[0]), 1e-6, "xx")
	assert.InDelta(t, 0, imag(vis[0]), 1e-6)
	assert.InDelta(t, 0.5, real(vis[1]), 1e-6, "yy")
	assert.InDelta(t, 0, imag(vis[1]), 1e-6)
	assert.InDelta(t, 0, cmplx.Abs(vis[2]), 1e-6, "xy")
	assert.InDelta(t, 0, cmplx.Abs(vis[3]), 1e-6, "yx")
}

func TestMakeVisibility_BelowHorizonIsZero(t *testing.T) {
	tk := zenithTask(t)
	loc := tk.Telescope.Location
	tm := tk.Time

	ra, dec := coord.HorizonToEquatorial(math.Pi/2, -0.3, tm, loc)
	src, err := sky.NewSource("set", ra, dec, 150e6, [4]float64{1, 0, 0, 0})
	require.NoError(t, err)
	tk.Source = src

	vis, err := New(tk).MakeVisibility()
	require.NoError(t, err)
	assert.True(t, vis.IsZero(), "below-horizon source must contribute the zero vector")
}

func TestMakeVisibility_FringePhase(t *testing.T) {
	// An off-zenith source on an east-west baseline picks up the expected
	// geometric phase 2π·u·l while keeping the unit amplitude of a uniform
	// beam and a 1 Jy unpolarized source.
	tk := zenithTask(t)
	loc := tk.Telescope.Location
	tm := tk.Time

	alt := 80 * math.Pi / 180
	ra, dec := coord.HorizonToEquatorial(math.Pi/2, alt, tm, loc) // due east
	src, err := sky.NewSource("east", ra, dec, 150e6, [4]float64{1, 0, 0, 0})
	require.NoError(t, err)
	tk.Source = src

	vis, err := New(tk).MakeVisibility()
	require.NoError(t, err)

	l, m, n, up := src.DirectionCosines(tm, loc)
	require.True(t, up)
	uvw := tk.Baseline.UVWWavelengths(tk.FreqHz)
	wantPhase := 2 * math.Pi * (uvw[0]*l + uvw[1]*m + uvw[2]*n)
	want := 0.5 * cmplx.Exp(complex(0, wantPhase))

	assert.InDelta(t, real(want), real(vis[0]), 1e-9)
	assert.InDelta(t, imag(want), imag(vis[0]), 1e-9)
	assert.InDelta(t, 0.5, cmplx.Abs(vis[0]), 1e-9, "amplitude stays 0.5 Jy per polarization")
	assert.Greater(t, math.Abs(wantPhase), 0.1, "scenario must actually exercise a fringe")
}

func TestApplyBeam_GaussianAttenuates(t *testing.T) {
	tk := zenithTask(t)
	loc := tk.Telescope.Location
	tm := tk.Time

	g, err := beam.Gaussian(0.2)
	require.NoError(t, err)
	tk.Telescope = telescope.NewTelescope("test", loc, []beam.Beam{g})

	alt := 70 * math.Pi / 180
	ra, dec := coord.HorizonToEquatorial(0, alt, tm, loc)
	src, err := sky.NewSource("off", ra, dec, 150e6, [4]float64{1, 0, 0, 0})
	require.NoError(t, err)
	tk.Source = src

	apparent, err := New(tk).ApplyBeam()
	require.NoError(t, err)

	_, za := src.AzZa(tm, loc)
	g1 := math.Exp(-za * za / (2 * 0.2 * 0.2))
	// Both antennas share the beam: response enters squared.
	assert.InDelta(t, 0.5*g1*g1, real(apparent[0][0]), 1e-9)
	assert.InDelta(t, 0.5*g1*g1, real(apparent[1][1]), 1e-9)
}

func TestUpdateTask_StoresVisibility(t *testing.T) {
	tk := zenithTask(t)
	require.Nil(t, tk.Vis)

	require.NoError(t, New(tk).UpdateTask())
	require.NotNil(t, tk.Vis)
	assert.InDelta(t, 0.5, real(tk.Vis[0]), 1e-6)
}
