package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testScenario builds a small but non-trivial task set: 4 antennas, 2
// integrations, 3 channels, 3 sources placed above the horizon around the
// array zenith at the first integration.
func testScenario(t *testing.T) (*task.Geometry, []*task.UVTask) {
	t.Helper()
	loc := coord.NewLocation(-30.72, 21.43, 1073)
	t0 := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)

	ants := make([]*telescope.Antenna, 4)
	for i := range ants {
		ants[i] = &telescope.Antenna{
			Name:        "ant" + string(rune('0'+i)),
			Number:      i,
			PositionENU: [3]float64{float64(i) * 7, float64(i%2) * 3, 0},
		}
	}
	times := []time.Time{t0, t0.Add(10 * time.Second)}
	geom := &task.Geometry{
		Name:     "testarray",
		Location: loc,
		Antennas: ants,
		Rows:     task.CrossRows(ants, times),
		FreqsHz:  []float64{150e6, 151e6, 152e6},
	}

	alts := []float64{1.0, 1.3, 0.8}
	azs := []float64{0.0, 2.0, 4.5}
	srcs := make([]*sky.Source, len(alts))
	for i := range srcs {
		ra, dec := coord.HorizonToEquatorial(azs[i], alts[i], t0, loc)
		s, err := sky.NewSource("src"+string(rune('0'+i)), ra, dec, 150e6, [4]float64{1, 0, 0, 0})
		require.NoError(t, err)
		srcs[i] = s
	}

	tasks, err := task.BuildTasks(geom, srcs, []beam.Beam{beam.Uniform()}, nil)
	require.NoError(t, err)
	return geom, tasks
}

func runScenario(t *testing.T, geom *task.Geometry, tasks []*task.UVTask, workers int) *Visibilities {
	t.Helper()
	out := NewVisibilities(len(geom.Rows), len(geom.FreqsHz))
	err := RunLocal(context.Background(), Config{Workers: workers}, tasks, out, discardLogger())
	require.NoError(t, err)
	return out
}

func assertVisEqual(t *testing.T, want, got *Visibilities, tol float64) {
	t.Helper()
	require.Equal(t, want.Rows, got.Rows)
	require.Equal(t, want.Channels, got.Channels)
	for row := 0; row < want.Rows; row++ {
		for ch := 0; ch < want.Channels; ch++ {
			d := task.DestIndex{BltRow: row, Chan: ch}
			w, err := want.At(d)
			require.NoError(t, err)
			g, err := got.At(d)
			require.NoError(t, err)
			for p := 0; p < 4; p++ {
				assert.InDelta(t, real(w[p]), real(g[p]), tol, "row %d chan %d pol %d", row, ch, p)
				assert.InDelta(t, imag(w[p]), imag(g[p]), tol, "row %d chan %d pol %d", row, ch, p)
			}
		}
	}
}

func TestPartition_Sizes(t *testing.T) {
	tasks := make([]*task.UVTask, 10)
	for i := range tasks {
		tasks[i] = &task.UVTask{}
	}

	shards := Partition(tasks, 3)
	require.Len(t, shards, 3)
	assert.Len(t, shards[0], 4)
	assert.Len(t, shards[1], 3)
	assert.Len(t, shards[2], 3)

	// Disjoint and covering, order preserved.
	var flat []*task.UVTask
	for _, s := range shards {
		flat = append(flat, s...)
	}
	require.Len(t, flat, len(tasks))
	for i := range flat {
		assert.Same(t, tasks[i], flat[i])
	}
}

func TestPartition_MoreShardsThanTasks(t *testing.T) {
	tasks := []*task.UVTask{{}, {}}
	shards := Partition(tasks, 5)
	require.Len(t, shards, 5)
	assert.Len(t, shards[0], 1)
	assert.Len(t, shards[1], 1)
	for i := 2; i < 5; i++ {
		assert.Empty(t, shards[i])
	}
}

func TestRunState_Transitions(t *testing.T) {
	s := StateIdle
	for next := StateTasksBuilt; next <= StateDone; next++ {
		require.NoError(t, s.advance(next))
	}
	assert.Equal(t, StateDone, s)

	s = StateIdle
	err := s.advance(StateComputing)
	require.Error(t, err)
	assert.Equal(t, StateIdle, s, "a rejected transition must not move the state")
}

func TestVisibilities_AccumulateAndAt(t *testing.T) {
	v := NewVisibilities(2, 3)
	d := task.DestIndex{BltRow: 1, Chan: 2}

	require.NoError(t, v.Accumulate(d, task.Visibility{1, 2, 0, 0}))
	require.NoError(t, v.Accumulate(d, task.Visibility{0.5, 0, 1i, 0}))

	got, err := v.At(d)
	require.NoError(t, err)
	assert.Equal(t, task.Visibility{1.5, 2, 1i, 0}, got)
	assert.Equal(t, 1, v.NonzeroBins())

	_, err = v.At(task.DestIndex{BltRow: 2, Chan: 0})
	assert.Error(t, err)
	assert.Error(t, v.Accumulate(task.DestIndex{Chan: 3}, task.Visibility{}))
	assert.Error(t, v.Accumulate(task.DestIndex{Spw: 1}, task.Visibility{}))
}

func TestWorkerError_Unwraps(t *testing.T) {
	inner := errors.New("beam exploded")
	err := error(&WorkerError{Rank: 3, Err: inner})
	assert.ErrorIs(t, err, ErrDistributedFailure)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "rank 3")
}

func TestIsolateShard_CopiesMutableState(t *testing.T) {
	_, tasks := testScenario(t)
	shard := isolateShard(tasks[:6])

	require.Len(t, shard, 6)
	for i, cp := range shard {
		assert.NotSame(t, tasks[i], cp)
		assert.NotSame(t, tasks[i].Telescope, cp.Telescope)
		assert.NotSame(t, tasks[i].Source, cp.Source)
		assert.Equal(t, tasks[i].Dest, cp.Dest)
	}
	// Tasks sharing a telescope or source keep sharing the same clone
	// within the shard.
	assert.Same(t, shard[0].Telescope, shard[1].Telescope)
	for i := range shard {
		for j := range shard {
			if tasks[i].Source == tasks[j].Source {
				assert.Same(t, shard[i].Source, shard[j].Source)
			}
		}
	}
}

func TestRunLocal_SingleVsMultiWorker(t *testing.T) {
	geom, tasks := testScenario(t)
	one := runScenario(t, geom, tasks, 1)
	four := runScenario(t, geom, tasks, 4)
	seven := runScenario(t, geom, tasks, 7)

	require.Greater(t, one.NonzeroBins(), 0, "scenario must produce signal")
	assertVisEqual(t, one, four, 1e-12)
	assertVisEqual(t, one, seven, 1e-12)
}

func TestRunLocal_OrderIndependent(t *testing.T) {
	geom, tasks := testScenario(t)
	want := runScenario(t, geom, tasks, 2)

	shuffled := make([]*task.UVTask, len(tasks))
	copy(shuffled, tasks)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	got := runScenario(t, geom, shuffled, 2)
	assertVisEqual(t, want, got, 1e-12)
}

func TestRunLocal_BelowHorizonContributesNothing(t *testing.T) {
	geom, tasks := testScenario(t)
	loc := geom.Location
	t0 := geom.Rows[0].Time

	ra, dec := coord.HorizonToEquatorial(1.0, -0.4, t0, loc)
	set, err := sky.NewSource("set", ra, dec, 150e6, [4]float64{1, 0, 0, 0})
	require.NoError(t, err)
	for _, tk := range tasks {
		tk.Source = set
	}

	out := runScenario(t, geom, tasks, 3)
	assert.Equal(t, 0, out.NonzeroBins())
}

func TestRunLocal_WorkerFailureAbortsRun(t *testing.T) {
	geom, tasks := testScenario(t)

	// Point one task at an antenna with a beam id no telescope has.
	bad := *tasks[0].Baseline.Antenna1
	bad.BeamID = 99
	tasks[0].Baseline = telescope.NewBaseline(&bad, tasks[0].Baseline.Antenna2)

	out := NewVisibilities(len(geom.Rows), len(geom.FreqsHz))
	err := RunLocal(context.Background(), Config{Workers: 3}, tasks, out, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDistributedFailure)

	var we *WorkerError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 0, we.Rank, "the failing task sits in the first shard")
}

func TestRunLocal_CallerCancel(t *testing.T) {
	geom, tasks := testScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewVisibilities(len(geom.Rows), len(geom.FreqsHz))
	err := RunLocal(ctx, Config{Workers: 2}, tasks, out, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDistributedFailure)
}

func TestRunLocal_DefaultWorkerCount(t *testing.T) {
	geom, tasks := testScenario(t)
	want := runScenario(t, geom, tasks, 1)
	got := runScenario(t, geom, tasks, 0)
	assertVisEqual(t, want, got, 1e-12)
}
