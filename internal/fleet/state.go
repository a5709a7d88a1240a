package fleet

// Status is a CameraEntry's position in the reconnect state machine:
// Connected -> DegradedRead -> Reconnecting -> Connected | Failed.
// Grounded on _try_reconnect / _start_camera_reader in
// surveillance/camera_manager.py (3 attempts spaced 2s apart, falling back
// to a steady 1s retry loop) and internal/camera/camera.go's atomic
// running-flag lifecycle.
type Status int

const (
	// StatusConnected means the reader is actively pulling frames.
	StatusConnected Status = iota
	// StatusDegradedRead means a single read failed; the reader will
	// attempt a reconnect next.
	StatusDegradedRead
	// StatusReconnecting means the reader is cycling through reconnect
	// attempts. The entry stays registered in the fleet during this
	// state, so callers see ErrTimeout rather than ErrNotRunning.
	StatusReconnecting
	// StatusFailed means the entry was stopped while the reader was
	// reconnecting and the reader goroutine has exited. Reconnect attempts
	// never run out on their own: after ReconnectAttempts tries the reader
	// keeps retrying every RetryBackoff.
	StatusFailed
)

// String renders a Status for logging.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDegradedRead:
		return "degraded_read"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
