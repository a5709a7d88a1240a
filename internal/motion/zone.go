package motion

import (
	"image"

	"github.com/AnHumenny/video-surveillance/internal/repository"
)

// Zone is the in-package representation of a camera's alarm rectangle,
// derived from repository.Zone. Replaces the original deployment's
// exec()-built coord_1..coord_4 globals with a validated 4-point polygon.
type Zone struct {
	Points [4]image.Point
}

// NewZone converts a repository.Zone into a Zone usable by Contains.
func NewZone(z repository.Zone) Zone {
	var zone Zone
	for i, p := range z.Points {
		zone.Points[i] = image.Pt(p.X, p.Y)
	}
	return zone
}

// Contains reports whether p lies inside the zone polygon, using the
// standard ray-casting point-in-polygon test.
func (z Zone) Contains(p image.Point) bool {
	inside := false
	n := len(z.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := z.Points[i], z.Points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			float64(p.X) < float64(pj.X-pi.X)*float64(p.Y-pi.Y)/float64(pj.Y-pi.Y)+float64(pi.X) {
			inside = !inside
		}
	}
	return inside
}
