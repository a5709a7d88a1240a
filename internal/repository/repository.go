// Package repository defines the storage contract the Camera Fleet Engine
// depends on for camera configuration, alarm zones and notification
// subscribers. The engine only ever calls through this interface; how it
// is persisted is an external concern.
package repository

import "context"

// Point is a single (x, y) pixel coordinate of an alarm zone corner.
type Point struct {
	X int
	Y int
}

// Zone is the four-point polygon a camera's motion detector tests object
// centroids against. Replaces the original deployment's exec()-built
// coord_1..coord_4 globals with a fixed, validated 4-tuple.
type Zone struct {
	CameraID string
	Points   [4]Point
}

// CameraConfig is the persisted configuration for one camera.
type CameraConfig struct {
	ID              string
	URL             string
	Enabled         bool
	MotionEnabled   bool
	SaveScreenshot  bool
	SendEmail       bool
	SendChat        bool
	SendChatVideo   bool
}

// Subscriber identifies a notification recipient registered against a
// camera (an email address, a chat room id, or similar external handle).
type Subscriber struct {
	CameraID string
	ID       string
}

// Repository is the narrow persistence contract the fleet is built
// against. Implementations must be safe for concurrent use.
type Repository interface {
	ListCameras(ctx context.Context) ([]CameraConfig, error)
	GetCamera(ctx context.Context, id string) (CameraConfig, error)
	GetZone(ctx context.Context, cameraID string) (Zone, bool, error)
	UpdateZone(ctx context.Context, zone Zone) error
	ListNotificationSubscribers(ctx context.Context, cameraID string) ([]Subscriber, error)
}
