package testutil

import (
	"sync"
	"testing"
)

// Parallel runs fn n times concurrently and waits for all runs. Errors are
// reported with the index of the failing run.
func Parallel(t *testing.T, n int, fn func(i int) error) {
	t.Helper()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn(i)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d: %v", i, err)
		}
	}
}
