package motion

import (
	"image"
	"testing"
	"time"
)

func allIn(n int) []bool {
	in := make([]bool, n)
	for i := range in {
		in[i] = true
	}
	return in
}

func TestTrackerAssignsSameIDToNearbyCentroid(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	now := time.Now()

	ids1, _ := tr.update([]image.Point{{X: 100, Y: 100}}, allIn(1), now)
	ids2, _ := tr.update([]image.Point{{X: 110, Y: 105}}, allIn(1), now.Add(100*time.Millisecond))

	if ids1[0] != ids2[0] {
		t.Fatalf("expected same track ID for nearby centroid, got %d and %d", ids1[0], ids2[0])
	}
	if tr.count() != 1 {
		t.Fatalf("expected object count 1, got %d", tr.count())
	}
}

func TestTrackerAssignsNewIDBeyondMaxDistance(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	now := time.Now()

	ids1, isNew1 := tr.update([]image.Point{{X: 100, Y: 100}}, allIn(1), now)
	ids2, isNew2 := tr.update([]image.Point{{X: 500, Y: 500}}, allIn(1), now.Add(100*time.Millisecond))

	if ids1[0] == ids2[0] {
		t.Fatalf("expected different track IDs for far-apart centroids")
	}
	if !isNew1[0] || !isNew2[0] {
		t.Fatalf("expected both centroids to mint new tracks")
	}
	if tr.count() != 2 {
		t.Fatalf("expected object count 2, got %d", tr.count())
	}
}

func TestTrackerEvictsStaleTracks(t *testing.T) {
	tr := newTracker(70, 500*time.Millisecond)
	now := time.Now()

	tr.update([]image.Point{{X: 10, Y: 10}}, allIn(1), now)
	tr.update([]image.Point{}, nil, now.Add(time.Second))

	if len(tr.tracks) != 0 {
		t.Fatalf("expected stale track to be evicted, got %d remaining", len(tr.tracks))
	}
}

func TestTrackerResetClearsCount(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	tr.update([]image.Point{{X: 1, Y: 1}}, allIn(1), time.Now())
	tr.reset()
	if tr.count() != 0 {
		t.Fatalf("expected count 0 after reset, got %d", tr.count())
	}
}

func TestTrackerOutOfZoneCentroidNeverCounted(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	now := time.Now()

	ids, isNew := tr.update([]image.Point{{X: 100, Y: 100}}, []bool{false}, now)

	if ids[0] != 0 {
		t.Fatalf("expected out-of-zone centroid to get no track ID, got %d", ids[0])
	}
	if isNew[0] {
		t.Fatalf("expected out-of-zone centroid not to mint a new track")
	}
	if tr.count() != 0 {
		t.Fatalf("expected object count 0 for out-of-zone motion, got %d", tr.count())
	}

	// The same centroid moving exclusively outside the zone across
	// several frames must never start counting, even once it has no
	// nearby track to match against.
	tr.update([]image.Point{{X: 105, Y: 103}}, []bool{false}, now.Add(100*time.Millisecond))
	if tr.count() != 0 {
		t.Fatalf("expected object count to remain 0, got %d", tr.count())
	}
}

func TestTrackerInZoneCentroidIsCounted(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	now := time.Now()

	ids, isNew := tr.update([]image.Point{{X: 100, Y: 100}}, []bool{true}, now)

	if ids[0] == 0 {
		t.Fatalf("expected in-zone centroid to be assigned a track ID")
	}
	if !isNew[0] {
		t.Fatalf("expected in-zone centroid to mint a new track")
	}
	if tr.count() != 1 {
		t.Fatalf("expected object count 1, got %d", tr.count())
	}
}

func TestTrackerMatchedTrackKeepsUpdatingOutsideZone(t *testing.T) {
	tr := newTracker(70, 2*time.Second)
	now := time.Now()

	ids1, _ := tr.update([]image.Point{{X: 100, Y: 100}}, []bool{true}, now)
	// Same object, now outside the zone: it was already tracked, so it
	// keeps its identity and does not increment the counter again.
	ids2, isNew2 := tr.update([]image.Point{{X: 130, Y: 100}}, []bool{false}, now.Add(100*time.Millisecond))

	if ids1[0] != ids2[0] {
		t.Fatalf("expected matched track to keep its ID leaving the zone, got %d and %d", ids1[0], ids2[0])
	}
	if isNew2[0] {
		t.Fatalf("expected no new track for an already-matched centroid")
	}
	if tr.count() != 1 {
		t.Fatalf("expected object count to stay 1, got %d", tr.count())
	}
}
