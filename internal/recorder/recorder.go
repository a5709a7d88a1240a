// Package recorder writes MPEG-4 clips from a stream of frames, either a
// single fixed-duration clip or a continuously looping series of clips.
// Grounded on generate_video_path/record_video/start_continuous_recording
// in surveillance/camera_manager.py; the encoder itself shells out to
// ffmpeg over stdin the way internal/pipeline/frame_provider.go shells out
// to ffmpeg for capture, since this module's dependency set carries no cgo
// video encoder.
package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// ErrAlreadyRecording is returned when Start is called on a camera that is
// already recording.
var ErrAlreadyRecording = errors.New("recorder: already recording")

// ErrNotRecording is returned when Stop is called on a camera that isn't
// recording.
var ErrNotRecording = errors.New("recorder: not recording")

// Recorder writes one clip at a time for a single camera.
type Recorder struct {
	cameraID string
	mediaDir string
	fps      float64

	mu      sync.Mutex
	active  bool
	cmd     *exec.Cmd
	stdin   *bufio.Writer
	pipe    *os.File
	clipEnd time.Time
	once    bool // true: Write stops the clip once clipEnd passes; false: the clip runs until Stop
	path    string
}

// New creates a Recorder for one camera, writing clips under
// <mediaDir>/recordings/<cameraID>/camera_<cameraID>_<date>/.
func New(cameraID, mediaDir string, fps float64) *Recorder {
	if fps <= 0 {
		fps = 30
	}
	return &Recorder{cameraID: cameraID, mediaDir: mediaDir, fps: fps}
}

// clipPath mirrors generate_video_path's {cam_id}_{YYYYMMDD_HHMMSS}.mp4
// pattern under a date-partitioned directory.
func (r *Recorder) clipPath(now time.Time) (string, error) {
	dir := filepath.Join(r.mediaDir, "recordings", r.cameraID,
		fmt.Sprintf("camera_%s_%s", r.cameraID, now.Format("20060102")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("recorder: mkdir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.mp4", r.cameraID, now.Format("20060102_150405"))
	return filepath.Join(dir, name), nil
}

// start begins writing a clip of the given duration. once=true produces a
// single clip that Stop (or the duration elapsing) closes out; once=false
// leaves the clip open until Stop. Start, its only caller, passes
// once=true, and ContinuousLoop builds each of its clips through Start.
func (r *Recorder) start(now time.Time, duration time.Duration, once bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrAlreadyRecording
	}

	path, err := r.clipPath(now)
	if err != nil {
		return err
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "image2pipe",
		"-framerate", fmt.Sprintf("%.2f", r.fps),
		"-i", "-",
		"-c:v", "mpeg4",
		path,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("recorder: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("recorder: start ffmpeg: %w", err)
	}

	r.cmd = cmd
	r.stdin = bufio.NewWriter(stdin)
	r.active = true
	r.once = once
	r.clipEnd = now.Add(duration)
	r.path = path
	return nil
}

// Start begins a single fixed-duration clip (§4.5 "short clip" mode).
func (r *Recorder) Start(now time.Time, duration time.Duration) error {
	return r.start(now, duration, true)
}

// Write feeds one frame to the in-progress clip, JPEG-encoding it for
// ffmpeg's image2pipe demuxer. If the clip's duration has elapsed and it
// was a single-clip recording, Write stops the clip and returns
// ErrNotRecording for this and subsequent calls until Start is called
// again.
func (r *Recorder) Write(img image.Image, now time.Time) error {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return ErrNotRecording
	}
	if r.once && !now.Before(r.clipEnd) {
		r.mu.Unlock()
		r.Stop()
		return ErrNotRecording
	}
	stdin := r.stdin
	r.mu.Unlock()

	return jpeg.Encode(stdin, img, &jpeg.Options{Quality: 85})
}

// Stop finalizes the current clip, if any.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return ErrNotRecording
	}
	r.active = false

	if r.stdin != nil {
		r.stdin.Flush()
	}
	cmd := r.cmd
	r.cmd = nil
	r.stdin = nil

	go func() {
		if cmd.Process != nil {
			cmd.Wait()
		}
	}()
	return nil
}

// IsRecording reports whether a clip is currently being written.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ClipPath returns the path of the clip currently (or most recently)
// being written.
func (r *Recorder) ClipPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}
