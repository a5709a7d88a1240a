package queue

import (
	"image"
	"testing"
	"time"
)

func frame(seq uint64) Frame {
	return Frame{Image: image.NewGray(image.Rect(0, 0, 1, 1)), Timestamp: time.Now(), Seq: seq}
}

func TestPushEvictsOldestWhenFull(t *testing.T) {
	q := New(2)
	q.Push(frame(1))
	q.Push(frame(2))
	q.Push(frame(3))

	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}

	f, ok := q.Pop()
	if !ok || f.Seq != 2 {
		t.Fatalf("expected oldest remaining frame to be seq 2, got %+v ok=%v", f, ok)
	}
}

func TestLatestReturnsNewestWithoutRemoving(t *testing.T) {
	q := New(3)
	q.Push(frame(1))
	q.Push(frame(2))

	latest, ok := q.Latest()
	if !ok || latest.Seq != 2 {
		t.Fatalf("expected latest seq 2, got %+v ok=%v", latest, ok)
	}
	if q.Len() != 2 {
		t.Fatalf("expected Latest to not remove frames, len=%d", q.Len())
	}
}

func TestPopEmptyQueue(t *testing.T) {
	q := New(1)
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected ok=false on empty queue")
	}
}

func TestCapacityFloorsAtOne(t *testing.T) {
	q := New(0)
	q.Push(frame(1))
	q.Push(frame(2))
	if q.Len() != 1 {
		t.Fatalf("expected capacity floor of 1, got len %d", q.Len())
	}
}
