package sim

import (
	"context"
	"fmt"

	"github.com/shaoguangleo/uvsim/internal/sky"
	"github.com/shaoguangleo/uvsim/internal/task"
	"github.com/shaoguangleo/uvsim/internal/telescope"
)

// localTable is one rank's accumulated contribution, keyed by destination
// bin.
type localTable map[task.DestIndex]task.Visibility

// ExecutionContext is the communication surface a rank sees. Scatter and
// Gather are the only collectives; both block until every rank has
// participated or the run is cancelled.
type ExecutionContext interface {
	// Size is the number of ranks in the group.
	Size() int
	// Rank identifies this participant; rank 0 is the root.
	Rank() int
	// Scatter distributes one shard per rank. Only the root passes
	// shards (len must equal Size); every rank receives its own shard.
	Scatter(shards [][]*task.UVTask) ([]*task.UVTask, error)
	// Gather sends this rank's local table to the root. The root
	// receives all tables ordered by rank; other ranks get nil.
	Gather(local localTable) ([]localTable, error)
}

// localGroup wires an in-process group of goroutine ranks with channels.
// One channel pair per rank keeps Gather results in rank order without a
// sort.
type localGroup struct {
	ctx     context.Context
	size    int
	shardCh []chan []*task.UVTask
	tableCh []chan localTable
}

func newLocalGroup(ctx context.Context, size int) *localGroup {
	g := &localGroup{
		ctx:     ctx,
		size:    size,
		shardCh: make([]chan []*task.UVTask, size),
		tableCh: make([]chan localTable, size),
	}
	for i := 0; i < size; i++ {
		g.shardCh[i] = make(chan []*task.UVTask, 1)
		g.tableCh[i] = make(chan localTable, 1)
	}
	return g
}

// rankContext is one rank's view of a localGroup.
type rankContext struct {
	group *localGroup
	rank  int
}

func (rc *rankContext) Size() int { return rc.group.size }
func (rc *rankContext) Rank() int { return rc.rank }

func (rc *rankContext) Scatter(shards [][]*task.UVTask) ([]*task.UVTask, error) {
	g := rc.group
	if rc.rank == 0 {
		if len(shards) != g.size {
			return nil, fmt.Errorf("scatter: %d shards for %d ranks", len(shards), g.size)
		}
		for r, shard := range shards {
			select {
			case g.shardCh[r] <- isolateShard(shard):
			case <-g.ctx.Done():
				return nil, g.ctx.Err()
			}
		}
	}
	select {
	case shard := <-g.shardCh[rc.rank]:
		return shard, nil
	case <-g.ctx.Done():
		return nil, g.ctx.Err()
	}
}

func (rc *rankContext) Gather(local localTable) ([]localTable, error) {
	g := rc.group
	select {
	case g.tableCh[rc.rank] <- local:
	case <-g.ctx.Done():
		return nil, g.ctx.Err()
	}
	if rc.rank != 0 {
		return nil, nil
	}
	tables := make([]localTable, g.size)
	for r := 0; r < g.size; r++ {
		select {
		case tables[r] = <-g.tableCh[r]:
		case <-g.ctx.Done():
			return nil, g.ctx.Err()
		}
	}
	return tables, nil
}

// isolateShard rewrites a shard so no mutable state is shared with other
// ranks. Telescopes carry lazy beam normalization flags and sources cache
// their last apparent position; both mutate during compute.
func isolateShard(shard []*task.UVTask) []*task.UVTask {
	tels := make(map[*telescope.Telescope]*telescope.Telescope)
	srcs := make(map[*sky.Source]*sky.Source)
	out := make([]*task.UVTask, len(shard))
	for i, t := range shard {
		cp := *t
		tel, ok := tels[t.Telescope]
		if !ok {
			tel = t.Telescope.Clone()
			tels[t.Telescope] = tel
		}
		cp.Telescope = tel
		src, ok := srcs[t.Source]
		if !ok {
			src = t.Source.Clone()
			srcs[t.Source] = src
		}
		cp.Source = src
		out[i] = &cp
	}
	return out
}
