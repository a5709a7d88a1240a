package motion

import (
	"image"
	"sync"
	"time"
)

// Config tunes a Detector instance.
type Config struct {
	MinContourArea     float64
	MaxTrackerDistance float64
	TrackerStaleness   time.Duration
	ScreenshotDebounce time.Duration
}

// Detector runs background subtraction, connected-component extraction,
// centroid tracking and zone testing for a single camera. One Detector
// belongs to exactly one CameraEntry.
type Detector struct {
	mu sync.Mutex

	bg      *background
	tracker *tracker
	zone    *Zone

	minArea  float64
	debounce time.Duration

	lastScreenshot time.Time
}

// New creates a Detector for one camera using the given tunables.
func New(cfg Config) *Detector {
	if cfg.MinContourArea <= 0 {
		cfg.MinContourArea = 1500
	}
	if cfg.MaxTrackerDistance <= 0 {
		cfg.MaxTrackerDistance = 70
	}
	if cfg.TrackerStaleness <= 0 {
		cfg.TrackerStaleness = 2 * time.Second
	}
	if cfg.ScreenshotDebounce <= 0 {
		cfg.ScreenshotDebounce = 2 * time.Second
	}
	return &Detector{
		bg:       newBackground(0.05, 25),
		tracker:  newTracker(cfg.MaxTrackerDistance, cfg.TrackerStaleness),
		minArea:  cfg.MinContourArea,
		debounce: cfg.ScreenshotDebounce,
	}
}

// SetZone installs (or clears, with nil) the alarm zone tested against
// object centroids.
func (d *Detector) SetZone(z *Zone) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.zone = z
}

// Detect analyzes one frame and returns the resulting motion state. The
// zone test runs before tracking so that only centroids already inside
// the alarm zone can mint a new tracked object; out-of-zone motion is
// still reported as a detection for annotation purposes but never starts
// a track or increments the counter.
func (d *Detector) Detect(img image.Image, now time.Time) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	mask, width, height := d.bg.apply(img)
	boxes := connectedComponents(mask, width, height, d.minArea)

	centroids := make([]image.Point, len(boxes))
	inZone := make([]bool, len(boxes))
	for i, b := range boxes {
		centroids[i] = b.Center()
		if d.zone != nil {
			inZone[i] = d.zone.Contains(centroids[i])
		} else {
			inZone[i] = true
		}
	}
	ids, isNew := d.tracker.update(centroids, inZone, now)

	state := State{
		Motion:      len(boxes) > 0,
		ObjectCount: d.tracker.count(),
	}
	for i, b := range boxes {
		det := Detection{ObjectID: ids[i], Box: b, InZone: inZone[i]}
		if det.InZone {
			state.ZoneBreach = true
		}
		if isNew[i] && det.InZone {
			state.NewZoneEntry = true
		}
		state.Detections = append(state.Detections, det)
	}
	return state
}

// CurrentZone returns the alarm zone currently installed on the detector,
// or nil if none is configured.
func (d *Detector) CurrentZone() *Zone {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.zone
}

// ShouldScreenshot reports whether enough time has elapsed since the last
// screenshot was taken (the 2s debounce in the Python ancestor) and, if
// so, marks now as the new last-screenshot time.
func (d *Detector) ShouldScreenshot(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Sub(d.lastScreenshot) < d.debounce {
		return false
	}
	d.lastScreenshot = now
	return true
}

// Reset clears tracker state and the object counter. Concurrent Detect
// calls observe either the pre- or post-reset state atomically, never a
// partial reset, per the reset-law invariant.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tracker.reset()
}

// ObjectCount returns the number of distinct objects tracked since the
// last Reset.
func (d *Detector) ObjectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.count()
}
