// Package parallel provides chunked worker helpers and n_jobs handling.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// NJobsMessage is the error text for an invalid n_jobs value.
const NJobsMessage = "n_jobs must be an non-zero integer or None."

// ValidateNJobs checks an n_jobs parameter as it arrives from
// configuration: nil means "all CPUs" (-1), any non-zero integer is
// accepted, anything else is a ValueError.
func ValidateNJobs(v interface{}) (int, error) {
	switch tv := v.(type) {
	case nil:
		return -1, nil
	case int:
		if tv != 0 {
			return tv, nil
		}
	case int64:
		if tv != 0 {
			return int(tv), nil
		}
	case float64:
		if tv != 0 && tv == float64(int(tv)) {
			return int(tv), nil
		}
	}
	return 0, errors.NewValueError("n_jobs", NJobsMessage)
}

// ResolveNJobs turns an n_jobs value into a worker count. Positive values
// are used as-is; -1 means every CPU and -k means CPUs+1-k, floored at 1.
func ResolveNJobs(n int) int {
	if n > 0 {
		return n
	}
	workers := runtime.NumCPU() + 1 + n
	if workers < 1 {
		return 1
	}
	return workers
}

// Parallelize splits [0, items) into at most workers contiguous ranges
// and runs fn on each concurrently. workers <= 0 uses every CPU.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold || workers == 1 {
		fn(0, items)
		return
	}
	Parallelize(items, workers, fn)
}

// Map runs fn for every index with at most workers goroutines and returns
// the first error encountered.
func Map(items, workers int, fn func(i int) error) error {
	errs := make([]error, items)
	Parallelize(items, workers, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
