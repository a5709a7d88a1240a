// Package motion implements background-subtraction based motion
// detection: a per-camera running-average background model, connected
// component extraction in place of cv2.findContours, a nearest-neighbor
// centroid tracker, alarm-zone testing and frame annotation.
//
// Grounded on the detect() closure in the Python ancestor
// surveillance/camera_manager.py: min contour area 1500px^2, tracker
// match radius 70px, tracker staleness 2s, screenshot debounce 2s.
package motion

import "image"

// BoundingBox is an axis-aligned pixel rectangle around a moving object.
type BoundingBox struct {
	X, Y, Width, Height int
}

// Center returns the integer centroid of the box.
func (b BoundingBox) Center() image.Point {
	return image.Pt(b.X+b.Width/2, b.Y+b.Height/2)
}

// Area returns the box's pixel area.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Detection is one tracked object found in a single frame.
type Detection struct {
	ObjectID int
	Box      BoundingBox
	InZone   bool
}

// State is the result of analyzing one frame.
type State struct {
	Motion      bool
	Detections  []Detection
	ObjectCount int
	ZoneBreach  bool
	// NewZoneEntry reports whether this frame minted a brand new tracked
	// object inside the alarm zone, the "a new object just entered the
	// zone" signal the screenshot and clip triggers gate on.
	NewZoneEntry bool
}
