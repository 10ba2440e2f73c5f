// Package task defines the atomic unit of simulation work, one (source,
// time, frequency, baseline) combination bound to an output bin, and the
// builder that expands instrument geometry and a catalog into the full
// task list.
package task

import (
	"sort"
	"time"

	"github.com/shaoguangleo/uvsim/internal/sky"
	"github.com/shaoguangleo/uvsim/internal/telescope"
)

// DestIndex identifies the output bin a task's visibility is accumulated
// into: the baseline-time row, the spectral window, and the frequency
// channel. Comparable, so it keys accumulation maps directly.
type DestIndex struct {
	BltRow int
	Spw    int
	Chan   int
}

// Visibility is the 4-polarization complex correlation [xx, yy, xy, yx].
type Visibility [4]complex128

// Add returns the elementwise sum v + other.
func (v Visibility) Add(other Visibility) Visibility {
	return Visibility{v[0] + other[0], v[1] + other[1], v[2] + other[2], v[3] + other[3]}
}

// IsZero reports whether every polarization is exactly zero.
func (v Visibility) IsZero() bool {
	return v == Visibility{}
}

// UVTask holds everything needed to compute one source's contribution to
// one output bin. Created once by the builder, consumed exactly once by an
// engine, then folded into the output container and discarded.
type UVTask struct {
	Source    *sky.Source
	Time      time.Time
	FreqHz    float64
	Baseline  *telescope.Baseline
	Telescope *telescope.Telescope
	Dest      DestIndex

	// Vis is set by the engine; nil until computed.
	Vis *Visibility
}

// Compare defines the strict total order used for reproducible test
// comparisons: frequency channel, then baseline-time row, then baseline by
// antenna numbers. Computation correctness never depends on this order.
func Compare(a, b *UVTask) int {
	if a.Dest.Chan != b.Dest.Chan {
		if a.Dest.Chan < b.Dest.Chan {
			return -1
		}
		return 1
	}
	if a.Dest.BltRow != b.Dest.BltRow {
		if a.Dest.BltRow < b.Dest.BltRow {
			return -1
		}
		return 1
	}
	switch {
	case a.Baseline.Less(b.Baseline):
		return -1
	case b.Baseline.Less(a.Baseline):
		return 1
	}
	return 0
}

// Sort orders tasks in place by Compare.
func Sort(tasks []*UVTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Compare(tasks[i], tasks[j]) < 0
	})
}
