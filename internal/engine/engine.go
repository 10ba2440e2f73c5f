// Package engine computes the visibility contribution of a single task:
// beam-sandwiched local coherency times the geometric fringe.
package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/shaoguangleo/uvsim/internal/coord"
	"github.com/shaoguangleo/uvsim/internal/task"
)

// UVEngine is the stateless visibility-forming kernel bound to one task.
type UVEngine struct {
	Task *task.UVTask
}

// New binds an engine to a task.
func New(t *task.UVTask) *UVEngine {
	return &UVEngine{Task: t}
}

// ApplyBeam returns the apparent coherency J1 · C_local · J2ᴴ: the
// direction- and polarization-dependent baseline response to the task's
// source.
func (e *UVEngine) ApplyBeam() (coord.Jones, error) {
	t := e.Task
	az, za := t.Source.AzZa(t.Time, t.Telescope.Location)

	j1, err := t.Baseline.Antenna1.BeamJones(t.Telescope, az, za, t.FreqHz)
	if err != nil {
		return coord.Jones{}, fmt.Errorf("source %q: %w", t.Source.Name, err)
	}
	j2, err := t.Baseline.Antenna2.BeamJones(t.Telescope, az, za, t.FreqHz)
	if err != nil {
		return coord.Jones{}, fmt.Errorf("source %q: %w", t.Source.Name, err)
	}

	local := t.Source.LocalCoherency(t.Time, t.Telescope.Location)
	return j1.Mul(local).Mul(j2.ConjTranspose()), nil
}

// MakeVisibility computes the task's 4-polarization contribution
// [xx, yy, xy, yx]. A source below the horizon contributes the zero vector
// without erroring. Complex double precision throughout; no clamping or
// windowing beyond the horizon mask.
func (e *UVEngine) MakeVisibility() (task.Visibility, error) {
	t := e.Task

	l, m, n, up := t.Source.DirectionCosines(t.Time, t.Telescope.Location)
	if !up {
		return task.Visibility{}, nil
	}

	apparent, err := e.ApplyBeam()
	if err != nil {
		return task.Visibility{}, err
	}

	uvw := t.Baseline.UVWWavelengths(t.FreqHz)
	phase := 2 * math.Pi * (uvw[0]*l + uvw[1]*m + uvw[2]*n)
	fringe := cmplx.Exp(complex(0, phase))

	v := apparent.Scale(fringe)
	return task.Visibility{v[0][0], v[1][1], v[0][1], v[1][0]}, nil
}

// UpdateTask computes the visibility and stores it on the task.
func (e *UVEngine) UpdateTask() error {
	vis, err := e.MakeVisibility()
	if err != nil {
		return err
	}
	e.Task.Vis = &vis
	return nil
}
