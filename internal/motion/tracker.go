package motion

import (
	"image"
	"math"
	"time"
)

// track is a single tracked object, matched frame-to-frame by nearest
// centroid within maxDistance. Grounded on the nearest-tracker-within-70px
// matching and 2s staleness eviction in camera_manager.py's detect().
type track struct {
	id       int
	centroid image.Point
	lastSeen time.Time
}

// tracker assigns stable object IDs to per-frame centroids and evicts
// trackers that haven't been seen recently.
type tracker struct {
	tracks       []*track
	nextID       int
	maxDistance  float64
	staleness    time.Duration
	totalObjects int
}

func newTracker(maxDistance float64, staleness time.Duration) *tracker {
	return &tracker{maxDistance: maxDistance, staleness: staleness}
}

// update matches each centroid to an existing track (or starts a new one)
// and returns the object ID assigned to each, in the same order as
// centroids, plus a parallel isNew slice marking which centroids minted a
// fresh track this call. A centroid already matched to a live track keeps
// being tracked regardless of zone membership; a new track (and the
// totalObjects increment) is only created for an unmatched centroid whose
// inZone[i] is true — objects that never enter the alarm zone are never
// tracked or counted, per the "counted at most once per entry into the
// alarm zone" invariant. Matches mirror count_object in the Python
// ancestor, restricted to the zone-gated case.
func (t *tracker) update(centroids []image.Point, inZone []bool, now time.Time) (ids []int, isNew []bool) {
	ids = make([]int, len(centroids))
	isNew = make([]bool, len(centroids))
	matched := make([]bool, len(t.tracks))

	for i, c := range centroids {
		best := -1
		bestDist := t.maxDistance
		for j, tr := range t.tracks {
			if matched[j] {
				continue
			}
			d := distance(c, tr.centroid)
			if d <= bestDist {
				best = j
				bestDist = d
			}
		}

		if best >= 0 {
			t.tracks[best].centroid = c
			t.tracks[best].lastSeen = now
			matched[best] = true
			ids[i] = t.tracks[best].id
			continue
		}

		if !inZone[i] {
			continue
		}

		t.nextID++
		t.totalObjects++
		nt := &track{id: t.nextID, centroid: c, lastSeen: now}
		t.tracks = append(t.tracks, nt)
		matched = append(matched, true)
		ids[i] = nt.id
		isNew[i] = true
	}

	t.evict(now)
	return ids, isNew
}

func (t *tracker) evict(now time.Time) {
	kept := t.tracks[:0]
	for _, tr := range t.tracks {
		if now.Sub(tr.lastSeen) < t.staleness {
			kept = append(kept, tr)
		}
	}
	t.tracks = kept
}

// count returns the number of tracks minted (in-zone objects counted)
// since the last reset.
func (t *tracker) count() int {
	return t.totalObjects
}

// reset clears all tracking state and the object count, matching the
// reset-law invariant: after Reset, ObjectCount reads 0 and all track
// identities are forgotten.
func (t *tracker) reset() {
	t.tracks = nil
	t.nextID = 0
	t.totalObjects = 0
}

func distance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
