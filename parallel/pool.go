package parallel

import (
	"runtime"
	"sync"
)

type (
	WorkerFunc func(func())
	WaitFunc   func(done bool)
	CancelFunc func()
)

// Pool runs submitted closures on a fixed set of workers. Wait blocks until
// everything submitted so far has run; Wait(true) also stops the workers, after
// which Do must not be called again.
type Pool struct {
	workers sync.WaitGroup
	pending sync.WaitGroup
	size    int
	Do      WorkerFunc
	Wait    WaitFunc
	Cancel  CancelFunc
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		size: numWorkers,
		Do: func(f func()) {
			f()
		},
		Wait:   func(bool) {},
		Cancel: func() {},
	}

	if numWorkers > 1 {
		workChan := make(chan func(), numWorkers)

		for range numWorkers {
			pool.workers.Go(func() {
				for {
					f, ok := <-workChan
					if !ok {
						return
					}
					f()
					pool.pending.Done()
				}
			})
		}

		pool.Do = func(f func()) {
			pool.pending.Add(1)
			workChan <- f
		}

		pool.Wait = func(done bool) {
			pool.pending.Wait()
			if done {
				pool.Cancel()
				pool.workers.Wait()
			}
		}
		pool.Cancel = sync.OnceFunc(func() { close(workChan) })
	}

	return pool
}

// Size returns the number of workers, 1 when work runs inline.
func (p *Pool) Size() int {
	return p.size
}

// ForEach runs fn(i) for every i in [0, n) and waits for all of them without
// stopping the pool.
func (p *Pool) ForEach(n int, fn func(i int)) {
	for i := range n {
		p.Do(func() { fn(i) })
	}
	p.Wait(false)
}
