package sim

import (
	"fmt"

	"github.com/shaoguangleo/uvsim/internal/task"
)

// Visibilities is the dense output container: one 4-polarization complex
// bin per (baseline-time row, frequency channel), zero-initialized. A
// single spectral window is assumed.
type Visibilities struct {
	Rows     int
	Channels int
	data     []task.Visibility
}

// NewVisibilities allocates a zeroed container.
func NewVisibilities(rows, channels int) *Visibilities {
	return &Visibilities{
		Rows:     rows,
		Channels: channels,
		data:     make([]task.Visibility, rows*channels),
	}
}

func (v *Visibilities) index(d task.DestIndex) (int, error) {
	if d.BltRow < 0 || d.BltRow >= v.Rows || d.Chan < 0 || d.Chan >= v.Channels || d.Spw != 0 {
		return 0, fmt.Errorf("destination %+v out of range (%d rows, %d channels)", d, v.Rows, v.Channels)
	}
	return d.BltRow*v.Channels + d.Chan, nil
}

// At returns the bin at d.
func (v *Visibilities) At(d task.DestIndex) (task.Visibility, error) {
	i, err := v.index(d)
	if err != nil {
		return task.Visibility{}, err
	}
	return v.data[i], nil
}

// Accumulate adds vis into the bin at d.
func (v *Visibilities) Accumulate(d task.DestIndex, vis task.Visibility) error {
	i, err := v.index(d)
	if err != nil {
		return err
	}
	v.data[i] = v.data[i].Add(vis)
	return nil
}

// NonzeroBins counts bins holding a nonzero visibility.
func (v *Visibilities) NonzeroBins() int {
	n := 0
	for i := range v.data {
		if !v.data[i].IsZero() {
			n++
		}
	}
	return n
}
