package sim

import "github.com/shaoguangleo/uvsim/internal/task"

// Partition splits tasks into n contiguous shards. The first len%n shards
// get one extra task, so shard sizes differ by at most one. Shards are
// disjoint, cover the input, and preserve its order. n must be positive;
// with fewer tasks than shards the trailing shards are empty.
func Partition(tasks []*task.UVTask, n int) [][]*task.UVTask {
	if n <= 0 {
		return nil
	}
	base := len(tasks) / n
	extra := len(tasks) % n
	shards := make([][]*task.UVTask, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		shards[i] = tasks[start : start+size]
		start += size
	}
	return shards
}
