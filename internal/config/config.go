// Package config loads the Camera Fleet Engine's tunables from the
// environment, the way cmd/orbo/main.go used to before it grew a config
// struct of its own.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the fleet, motion detector, recorder and
// event dispatcher need. All fields have sane defaults so a zero-effort
// deployment still runs.
type Config struct {
	DatabasePath string
	MediaRoot    string

	MaxQueueSize   int
	FPS            float64
	ConnectTimeout time.Duration
	FrameTimeout   time.Duration

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	RetryBackoff      time.Duration

	MinContourArea     float64
	MaxTrackerDistance float64
	TrackerStaleness   time.Duration
	ScreenshotDebounce time.Duration

	ClipDuration           time.Duration
	ContinuousClipDuration time.Duration

	WorkerPoolSize int

	RTSPTransport string

	// StreamWidth/StreamHeight size the v4l2 capture request (env
	// SIZE_VIDEO, "W,H"); RTSP/HTTP sources report their own resolution
	// and ignore this.
	StreamWidth  int
	StreamHeight int

	HTTPAddr string
}

// Load reads configuration from the environment, applying the same
// defaults the original deployment shipped with.
func Load() Config {
	return Config{
		DatabasePath: getenv("DATABASE_PATH", "surveillance.db"),
		MediaRoot:    getenv("MEDIA_ROOT", "media"),

		MaxQueueSize:   getint("MAX_QUEUE_SIZE", 10),
		FPS:            getfloat("FPS", 30.0),
		ConnectTimeout: getduration("CONNECT_TIMEOUT", 5*time.Second),
		FrameTimeout:   getduration("FRAME_TIMEOUT", 5*time.Second),

		ReconnectAttempts: getint("RECONNECT_ATTEMPTS", 3),
		ReconnectDelay:    getduration("RECONNECT_DELAY", 2*time.Second),
		RetryBackoff:      getduration("RETRY_BACKOFF", 1*time.Second),

		MinContourArea:     getfloat("MIN_CONTOUR_AREA", 1500.0),
		MaxTrackerDistance: getfloat("MAX_TRACKER_DISTANCE", 70.0),
		TrackerStaleness:   getduration("TRACKER_STALENESS", 2*time.Second),
		ScreenshotDebounce: getduration("SCREENSHOT_DEBOUNCE", 2*time.Second),

		ClipDuration:           time.Duration(getint("BOT_SEND_VIDEO", 15)) * time.Second,
		ContinuousClipDuration: getduration("CONTINUOUS_CLIP_DURATION", 30*time.Second),

		WorkerPoolSize: getint("WORKER_POOL_SIZE", 4),

		RTSPTransport: getenv("RTSP_TRANSPORT", "tcp"),

		StreamWidth:  getstreamdim(getenv("SIZE_VIDEO", "1280,720"), 0),
		StreamHeight: getstreamdim(getenv("SIZE_VIDEO", "1280,720"), 1),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
	}
}

// getstreamdim parses the "W,H" form SIZE_VIDEO ships in and returns the
// dimension at index (0=width, 1=height), defaulting to 1280x720 on any
// malformed input.
func getstreamdim(raw string, index int) int {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return []int{1280, 720}[index]
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[index]))
	if err != nil || n <= 0 {
		return []int{1280, 720}[index]
	}
	return n
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
