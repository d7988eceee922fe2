package parallel

import (
	"sync/atomic"
	"testing"
)

func TestPool_RunsEveryTask(t *testing.T) {
	for _, workers := range []int{0, 1, 2, 8} {
		pool := Start(workers)

		var count atomic.Int64
		for range 100 {
			pool.Do(func() { count.Add(1) })
		}
		pool.Wait(true)

		if got := count.Load(); got != 100 {
			t.Fatalf("workers=%d: ran %d tasks, want 100", workers, got)
		}
	}
}

func TestPool_WaitBetweenBatches(t *testing.T) {
	pool := Start(4)
	defer pool.Wait(true)

	results := make([]int, 50)
	for batch := 1; batch <= 3; batch++ {
		pool.ForEach(len(results), func(i int) {
			results[i] += i
		})

		for i, v := range results {
			if v != i*batch {
				t.Fatalf("batch %d: results[%d] = %d, want %d", batch, i, v, i*batch)
			}
		}
	}
}

func TestPool_InlineWhenSingleWorker(t *testing.T) {
	pool := Start(1)
	if pool.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", pool.Size())
	}

	ran := false
	pool.Do(func() { ran = true })
	if !ran {
		t.Fatalf("single worker pool should run work inline")
	}
	pool.Wait(true)
}
