package workerpool

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(4)
	var count atomic.Int64

	for i := 0; i < 100; i++ {
		p.Submit(func() { count.Add(1) })
	}
	p.Close()

	if count.Load() != 100 {
		t.Fatalf("expected 100 jobs run, got %d", count.Load())
	}
}

func TestPoolFloorsSizeAtOne(t *testing.T) {
	p := New(0)
	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job never ran")
	}
	p.Close()
}
