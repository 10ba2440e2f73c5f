package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/shaoguangleo/uvsim/internal/beam"
	"github.com/shaoguangleo/uvsim/internal/coord"
	"github.com/shaoguangleo/uvsim/internal/sky"
	"github.com/shaoguangleo/uvsim/internal/telescope"
)

// ErrConfiguration indicates a geometry/beam mismatch caught before any
// task is computed: ambiguous beam assignment or a reference to a missing
// antenna or beam.
var ErrConfiguration = errors.New("configuration error")

// BltRow is one baseline-time row of the output container: an ordered
// antenna pair observed at one integration.
type BltRow struct {
	Ant1, Ant2 int // antenna numbers
	Time       time.Time
	TimeIndex  int
}

// Geometry is the immutable in-memory instrument description supplied by
// the external config/layout loaders.
type Geometry struct {
	Name     string
	Location coord.Location
	Antennas []*telescope.Antenna
	Rows     []BltRow
	FreqsHz  []float64
}

// CrossRows builds the baseline-time rows for every unordered antenna pair
// (ant1.Number < ant2.Number) at every time step, time-major, matching the
// usual cross-correlation layout.
func CrossRows(antennas []*telescope.Antenna, times []time.Time) []BltRow {
	var rows []BltRow
	for ti, tm := range times {
		for i := 0; i < len(antennas); i++ {
			for j := i + 1; j < len(antennas); j++ {
				rows = append(rows, BltRow{
					Ant1:      antennas[i].Number,
					Ant2:      antennas[j].Number,
					Time:      tm,
					TimeIndex: ti,
				})
			}
		}
	}
	return rows
}

// BuildTasks expands (frequency channel × baseline-time row × source) into
// the full task list, channel-major so the list is already in destination
// order. beamAssignment maps antenna name to a beam id; it may be nil only
// when a single beam is in play, in which case every antenna uses beam 0.
func BuildTasks(geom *Geometry, sources []*sky.Source, beams []beam.Beam, beamAssignment map[string]int) ([]*UVTask, error) {
	if len(beams) == 0 {
		return nil, fmt.Errorf("%w: at least one beam required", ErrConfiguration)
	}
	if len(beams) > 1 && beamAssignment == nil {
		return nil, fmt.Errorf("%w: beam assignment must be supplied when more than one beam is present", ErrConfiguration)
	}

	tel := telescope.NewTelescope(geom.Name, geom.Location, beams)

	// Resolve each antenna's beam id up front so bad assignments fail
	// before any task exists.
	byNumber := make(map[int]*telescope.Antenna, len(geom.Antennas))
	for _, a := range geom.Antennas {
		ant := *a
		if beamAssignment == nil {
			ant.BeamID = 0
		} else {
			id, ok := beamAssignment[ant.Name]
			if !ok {
				return nil, fmt.Errorf("%w: antenna %q missing from beam assignment", ErrConfiguration, ant.Name)
			}
			if id < 0 || id >= len(beams) {
				return nil, fmt.Errorf("%w: antenna %q assigned beam %d, have %d beams", ErrConfiguration, ant.Name, id, len(beams))
			}
			ant.BeamID = id
		}
		byNumber[ant.Number] = &ant
	}

	// One baseline object per row, shared by every channel and source.
	baselines := make([]*telescope.Baseline, len(geom.Rows))
	for ri, row := range geom.Rows {
		a1, ok := byNumber[row.Ant1]
		if !ok {
			return nil, fmt.Errorf("%w: row %d references unknown antenna number %d", ErrConfiguration, ri, row.Ant1)
		}
		a2, ok := byNumber[row.Ant2]
		if !ok {
			return nil, fmt.Errorf("%w: row %d references unknown antenna number %d", ErrConfiguration, ri, row.Ant2)
		}
		baselines[ri] = telescope.NewBaseline(a1, a2)
	}

	tasks := make([]*UVTask, 0, len(geom.FreqsHz)*len(geom.Rows)*len(sources))
	for ci, freq := range geom.FreqsHz {
		for ri, row := range geom.Rows {
			for _, src := range sources {
				tasks = append(tasks, &UVTask{
					Source:    src,
					Time:      row.Time,
					FreqHz:    freq,
					Baseline:  baselines[ri],
					Telescope: tel,
					Dest:      DestIndex{BltRow: ri, Spw: 0, Chan: ci},
				})
			}
		}
	}
	return tasks, nil
}
