package parallel

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestValidateNJobs(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    int
		wantErr bool
	}{
		{"nil means all", nil, -1, false},
		{"positive", 4, 4, false},
		{"negative", -2, -2, false},
		{"integral float", 3.0, 3, false},
		{"zero", 0, 0, true},
		{"fraction", 1.5, 0, true},
		{"string", "4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateNJobs(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNJobs(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if err.Error() != "goautoml: n_jobs: "+NJobsMessage {
					t.Errorf("unexpected message %q", err.Error())
				}
				return
			}
			if got != tt.want {
				t.Errorf("ValidateNJobs(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveNJobs(t *testing.T) {
	cpus := runtime.NumCPU()
	if got := ResolveNJobs(2); got != 2 {
		t.Errorf("ResolveNJobs(2) = %d", got)
	}
	if got := ResolveNJobs(-1); got != cpus {
		t.Errorf("ResolveNJobs(-1) = %d, want %d", got, cpus)
	}
	if got := ResolveNJobs(-cpus - 10); got != 1 {
		t.Errorf("ResolveNJobs floor = %d, want 1", got)
	}
}

func TestParallelizeCoversEveryIndex(t *testing.T) {
	for _, workers := range []int{-1, 1, 3, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			const n = 257
			var hits [n]int32
			Parallelize(n, workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestMapReturnsError(t *testing.T) {
	err := Map(10, 4, func(i int) error {
		if i == 7 {
			return fmt.Errorf("node %d failed", i)
		}
		return nil
	})
	if err == nil || err.Error() != "node 7 failed" {
		t.Errorf("Map error = %v", err)
	}
}
