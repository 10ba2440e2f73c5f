// Package sim runs the partition / scatter / compute / gather protocol
// over a set of visibility tasks. The in-process runner models each rank
// as a goroutine; the communication surface is kept behind
// ExecutionContext so the per-rank protocol never knows it is local.
package sim

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaoguangleo/uvsim/internal/engine"
	"github.com/shaoguangleo/uvsim/internal/metrics"
	"github.com/shaoguangleo/uvsim/internal/task"
)

// Config controls a run.
type Config struct {
	// Workers is the rank count. Zero or negative means one rank per CPU.
	Workers int
	// RunID tags log lines; generated when empty.
	RunID string
}

// RunLocal executes all tasks across an in-process group of workers and
// accumulates the results into out. The first worker error aborts the
// whole run: the group context is cancelled, every collective unblocks,
// and the error comes back wrapped so it matches ErrDistributedFailure.
// Partial results in out are not meaningful after a failure.
func RunLocal(ctx context.Context, cfg Config, tasks []*task.UVTask, out *Visibilities, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger.Info("starting run",
		"run_id", runID,
		"workers", workers,
		"tasks", len(tasks),
	)
	start := time.Now()

	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := newLocalGroup(gctx, workers)
	metrics.SetWorkersActive(workers)
	defer metrics.SetWorkersActive(0)

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		failure  *WorkerError
	)
	for rank := 0; rank < workers; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			rc := &rankContext{group: group, rank: rank}
			if err := runRank(rc, tasks, out); err != nil {
				failOnce.Do(func() {
					failure = &WorkerError{Rank: rank, Err: err}
					cancel()
				})
			}
		}(rank)
	}
	wg.Wait()

	if failure != nil {
		// A cancellation that originated outside the group is the
		// caller's abort, not a worker failure.
		if errors.Is(failure.Err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("run failed",
			"run_id", runID,
			"rank", failure.Rank,
			"error", failure.Err,
		)
		return failure
	}

	logger.Info("run complete",
		"run_id", runID,
		"duration", time.Since(start),
		"nonzero_bins", out.NonzeroBins(),
	)
	return nil
}

// runRank is the protocol every rank executes. Only rank 0 partitions and
// merges; all ranks walk the same state sequence so a skipped collective
// shows up as an invalid transition.
func runRank(ec ExecutionContext, tasks []*task.UVTask, out *Visibilities) error {
	state := StateIdle
	if err := state.advance(StateTasksBuilt); err != nil {
		return err
	}

	var shards [][]*task.UVTask
	if ec.Rank() == 0 {
		shards = Partition(tasks, ec.Size())
	}
	if err := state.advance(StatePartitioned); err != nil {
		return err
	}

	shard, err := ec.Scatter(shards)
	if err != nil {
		return err
	}

	if err := state.advance(StateComputing); err != nil {
		return err
	}
	local := make(localTable)
	for _, t := range shard {
		tstart := time.Now()
		vis, err := engine.New(t).MakeVisibility()
		if err != nil {
			return err
		}
		metrics.RecordCompute(time.Since(tstart))
		if vis.IsZero() {
			metrics.AddBelowHorizon()
			continue
		}
		local[t.Dest] = local[t.Dest].Add(vis)
	}
	if err := state.advance(StateLocallyReduced); err != nil {
		return err
	}

	tables, err := ec.Gather(local)
	if err != nil {
		return err
	}
	if err := state.advance(StateGathered); err != nil {
		return err
	}

	if ec.Rank() == 0 {
		for _, table := range tables {
			for dest, vis := range table {
				if err := out.Accumulate(dest, vis); err != nil {
					return err
				}
			}
		}
	}
	if err := state.advance(StateMerged); err != nil {
		return err
	}
	return state.advance(StateDone)
}
