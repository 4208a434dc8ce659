package sky

import (
	"context"
	"sync"
)

// chunkSize is the number of locations handed to a worker at a time. Large
// enough to amortize channel overhead, small enough to balance tail latency.
const chunkSize = 256

// forEachLocation runs fn(i) for every location index in [0, n) using the
// model's worker pool. Workers write to disjoint indices of the sample's
// slices, so no locking is needed. Timestamps are still processed strictly
// sequentially; only the per-location work within one timestamp fans out.
func (m *DarkSkyModel) forEachLocation(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}

	type span struct{ lo, hi int }
	jobs := make(chan span, m.workers*2)

	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sp := range jobs {
				for i := sp.lo; i < sp.hi; i++ {
					fn(i)
				}
			}
		}()
	}

	var err error
feed:
	for lo := 0; lo < n; lo += chunkSize {
		if ctx.Err() != nil {
			err = ctx.Err()
			break feed
		}
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		select {
		case jobs <- span{lo, hi}:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return err
}
