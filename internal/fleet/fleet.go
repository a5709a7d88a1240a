// Package fleet implements the CameraFleet supervisor: it owns one Entry
// per configured camera, each running its own reader goroutine, and
// exposes the narrow public contract other components call into (frame
// retrieval, zone updates, recording control, reinitialization).
//
// Grounded on internal/camera/camera.go's CameraManager (map + mutex,
// Activate/Deactivate lifecycle) and surveillance/camera_manager.py's
// reinitialize_camera for the re-fetch-config-and-restart semantics.
package fleet

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/events"
	"github.com/AnHumenny/video-surveillance/internal/motion"
	"github.com/AnHumenny/video-surveillance/internal/recorder"
	"github.com/AnHumenny/video-surveillance/internal/repository"
	"github.com/AnHumenny/video-surveillance/internal/stream"
	"github.com/AnHumenny/video-surveillance/internal/workerpool"
)

// Options configures the fleet-wide defaults every Entry is built with.
type Options struct {
	QueueCapacity          int
	FPS                    float64
	ConnectTimeout         time.Duration
	FrameTimeout           time.Duration
	ReconnectAttempts      int
	ReconnectDelay         time.Duration
	RetryBackoff           time.Duration
	RTSPTransport          string
	StreamWidth            int
	StreamHeight           int
	MinContourArea         float64
	MaxTrackerDistance     float64
	TrackerStaleness       time.Duration
	ScreenshotDebounce     time.Duration
	ClipDuration           time.Duration
	ContinuousClipDuration time.Duration
	WorkerPoolSize         int
	MediaRoot              string
	Logger                 *log.Logger
}

// GetFrameOptions carries the per-call inputs to GetFrame: spec.md's
// CameraFleet contract table lists these as the operation's "opts" (motion
// flag, save-screenshot flag, zone override, shouldReset), snapshotted by
// the caller at the top of the call rather than re-read mid-frame.
type GetFrameOptions struct {
	// Motion enables running the detector on this frame. When false,
	// GetFrame returns the raw frame untouched (the "fast path" for
	// Snapshot-like callers that don't want detection overhead).
	Motion bool
	// SaveScreenshot allows a debounced screenshot to be written and
	// fanned out as a ScreenshotEvent when a new object enters the zone.
	SaveScreenshot bool
	// Zone, if non-nil, overrides the camera's persisted alarm zone for
	// this and subsequent calls.
	Zone *repository.Zone
	// ShouldReset clears the detector's tracker state and object counter
	// before analyzing this frame.
	ShouldReset bool
}

// Fleet supervises every configured camera's Entry.
type Fleet struct {
	repo    repository.Repository
	disp    *events.Dispatcher
	pool    *workerpool.Pool
	viewers *stream.Hub
	opts    Options
	logger  *log.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Fleet. Call LoadAll to populate it from the
// repository at startup. Motion analysis for every camera runs on a
// shared, fixed-size worker pool so that a burst of busy cameras never
// spawns an unbounded number of detector goroutines.
func New(repo repository.Repository, disp *events.Dispatcher, opts Options) *Fleet {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.FrameTimeout <= 0 {
		opts.FrameTimeout = 2 * time.Second
	}
	return &Fleet{
		repo:    repo,
		disp:    disp,
		pool:    workerpool.New(opts.WorkerPoolSize),
		viewers: stream.NewHub(),
		opts:    opts,
		logger:  opts.Logger,
		entries: make(map[string]*Entry),
	}
}

// Viewers returns the fleet's per-camera live-view hub, for mounting the
// MJPEG stream endpoint alongside the rest of the HTTP surface.
func (f *Fleet) Viewers() *stream.Hub { return f.viewers }

func (f *Fleet) entryOptions() EntryOptions {
	return EntryOptions{
		QueueCapacity:      f.opts.QueueCapacity,
		FPS:                f.opts.FPS,
		ConnectTimeout:     f.opts.ConnectTimeout,
		ReconnectAttempts:  f.opts.ReconnectAttempts,
		ReconnectDelay:     f.opts.ReconnectDelay,
		RetryBackoff:       f.opts.RetryBackoff,
		RTSPTransport:      f.opts.RTSPTransport,
		StreamWidth:        f.opts.StreamWidth,
		StreamHeight:       f.opts.StreamHeight,
		MinContourArea:     f.opts.MinContourArea,
		MaxTrackerDistance: f.opts.MaxTrackerDistance,
		TrackerStaleness:   f.opts.TrackerStaleness,
		ScreenshotDebounce: f.opts.ScreenshotDebounce,
		ClipDuration:       f.opts.ClipDuration,
		MediaRoot:          f.opts.MediaRoot,
		Logger:             f.logger,
		Dispatcher:         f.disp,
		Pool:               f.pool,
		Viewers:            f.viewers,
		Repo:               f.repo,
	}
}

// LoadAll fetches every enabled camera from the repository and starts its
// entry, logging (not failing) any individual camera that can't be opened
// so that one broken camera never stops the fleet from starting.
func (f *Fleet) LoadAll(ctx context.Context) error {
	cameras, err := f.repo.ListCameras(ctx)
	if err != nil {
		return fmt.Errorf("fleet: list cameras: %w", err)
	}
	for _, cam := range cameras {
		if !cam.Enabled {
			continue
		}
		if err := f.addLocked(ctx, cam); err != nil {
			f.logger.Printf("[Fleet] camera %s failed to start: %v", cam.ID, err)
		}
	}
	return nil
}

func (f *Fleet) addLocked(ctx context.Context, cfg repository.CameraConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[cfg.ID]; exists {
		return fmt.Errorf("fleet: camera %s already registered", cfg.ID)
	}

	entry := newEntry(cfg, f.entryOptions())

	if zone, ok, err := f.repo.GetZone(ctx, cfg.ID); err == nil && ok {
		z := motion.NewZone(zone)
		entry.detector.SetZone(&z)
	}

	if err := entry.start(); err != nil {
		return err
	}
	f.entries[cfg.ID] = entry
	return nil
}

// AddCamera registers and starts a new camera entry. ErrConfigInvalid is
// returned if cfg.URL is empty.
func (f *Fleet) AddCamera(ctx context.Context, cfg repository.CameraConfig) error {
	if cfg.URL == "" {
		return ErrConfigInvalid
	}
	return f.addLocked(ctx, cfg)
}

// RemoveCamera stops and deregisters a camera entry.
func (f *Fleet) RemoveCamera(id string) error {
	f.mu.Lock()
	entry, ok := f.entries[id]
	if ok {
		delete(f.entries, id)
	}
	f.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	entry.stop()
	return nil
}

func (f *Fleet) get(id string) (*Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Snapshot returns the newest decoded frame for a camera with no zone
// test and no detector mutation, per spec.md §4.7's Snapshot(id) entry.
// It returns ErrNotRunning if the camera has failed and ErrTimeout if no
// frame has been queued yet; while the camera is mid-reconnect it still
// returns the last queued frame.
func (f *Fleet) Snapshot(id string) (image.Image, time.Time, error) {
	entry, err := f.get(id)
	if err != nil {
		return nil, time.Time{}, err
	}

	switch entry.Status() {
	case StatusFailed:
		return nil, time.Time{}, ErrNotRunning
	case StatusReconnecting:
		if img, ts, ok := entry.LatestFrame(); ok {
			return img, ts, nil
		}
		return nil, time.Time{}, ErrTimeout
	}

	img, ts, ok := entry.LatestFrame()
	if !ok {
		return nil, time.Time{}, ErrTimeout
	}
	return img, ts, nil
}

// GetFrame is the hot path: it waits up to the fleet's frame timeout for
// the camera's latest frame, optionally runs it through the motion
// detector, and triggers screenshot/clip side effects, per spec.md §4.7's
// ordering guarantees. It returns ErrNotRunning if the camera has
// permanently failed and ErrTimeout if no frame arrived in time.
func (f *Fleet) GetFrame(ctx context.Context, id string, opts GetFrameOptions) (image.Image, time.Time, error) {
	entry, err := f.get(id)
	if err != nil {
		return nil, time.Time{}, err
	}
	if entry.Status() == StatusFailed {
		return nil, time.Time{}, ErrNotRunning
	}
	return entry.GetFrame(ctx, opts, f.opts.FrameTimeout)
}

// Reload diffs the repository's camera list against the live entry set:
// it starts any enabled camera the fleet doesn't yet have an entry for,
// stops and removes any entry whose camera is no longer present (or no
// longer enabled), and leaves every entry present in both sets untouched
// — same Capture instance, same detector and recorder state. Grounded on
// scenario S3 in spec.md §8.
func (f *Fleet) Reload(ctx context.Context) error {
	cameras, err := f.repo.ListCameras(ctx)
	if err != nil {
		return fmt.Errorf("fleet: reload: %w", ErrRepoUnavailable)
	}

	wanted := make(map[string]repository.CameraConfig, len(cameras))
	for _, cam := range cameras {
		if cam.Enabled {
			wanted[cam.ID] = cam
		}
	}

	f.mu.Lock()
	var stale []*Entry
	for id, entry := range f.entries {
		if _, ok := wanted[id]; !ok {
			stale = append(stale, entry)
			delete(f.entries, id)
		}
	}
	var toStart []repository.CameraConfig
	for id, cam := range wanted {
		if _, ok := f.entries[id]; !ok {
			toStart = append(toStart, cam)
		}
	}
	f.mu.Unlock()

	for _, entry := range stale {
		entry.stop()
	}
	for _, cam := range toStart {
		if err := f.addLocked(ctx, cam); err != nil {
			f.logger.Printf("[Fleet] camera %s failed to start during reload: %v", cam.ID, err)
		}
	}
	return nil
}

// Status returns a camera's reconnect-state-machine status.
func (f *Fleet) Status(id string) (Status, error) {
	entry, err := f.get(id)
	if err != nil {
		return 0, err
	}
	return entry.Status(), nil
}

// LastError returns the most recent read/reconnect error observed for a
// camera, or nil if the camera has had none.
func (f *Fleet) LastError(id string) (error, error) {
	entry, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return entry.LastError(), nil
}

// Reinitialize stops a camera's current entry (if any), re-fetches its
// configuration from the repository, and restarts it fresh — or removes
// it entirely if the configuration is now missing or disabled. Grounded
// on reinitialize_camera in surveillance/camera_manager.py.
func (f *Fleet) Reinitialize(ctx context.Context, id string) error {
	f.mu.Lock()
	old, existed := f.entries[id]
	delete(f.entries, id)
	f.mu.Unlock()

	if existed {
		old.stop()
	}

	cfg, err := f.repo.GetCamera(ctx, id)
	if err != nil {
		return fmt.Errorf("fleet: reinitialize %s: %w", id, ErrConfigMissing)
	}
	if !cfg.Enabled {
		return nil
	}
	return f.addLocked(ctx, cfg)
}

// SaveZone persists a new alarm zone for a camera and, if the camera is
// running, installs it on the live detector immediately.
func (f *Fleet) SaveZone(ctx context.Context, zone repository.Zone) error {
	if err := f.repo.UpdateZone(ctx, zone); err != nil {
		return fmt.Errorf("fleet: save zone: %w", err)
	}
	entry, err := f.get(zone.CameraID)
	if err != nil {
		return nil
	}
	z := motion.NewZone(zone)
	entry.detector.SetZone(&z)
	return nil
}

// StartRecording begins a fixed-duration clip for a camera.
func (f *Fleet) StartRecording(id string, duration time.Duration) error {
	entry, err := f.get(id)
	if err != nil {
		return err
	}
	if duration <= 0 {
		duration = f.opts.ClipDuration
	}
	if err := entry.rec.Start(time.Now(), duration); err != nil {
		if err == recorder.ErrAlreadyRecording {
			return ErrAlreadyRecording
		}
		return err
	}
	return nil
}

// StopRecording ends a camera's in-progress clip.
func (f *Fleet) StopRecording(id string) error {
	entry, err := f.get(id)
	if err != nil {
		return err
	}
	if err := entry.StopRecording(); err != nil {
		if err == recorder.ErrNotRecording {
			return ErrNotRecording
		}
		return err
	}
	return nil
}

// StartContinuousRecording begins a continuously looping recording for a
// camera, repeating fixed-duration clips until StopContinuousRecording is
// called.
func (f *Fleet) StartContinuousRecording(id string) error {
	entry, err := f.get(id)
	if err != nil {
		return err
	}
	if err := entry.StartContinuous(f.opts.ContinuousClipDuration); err != nil {
		if err == recorder.ErrAlreadyRecording {
			return ErrAlreadyRecording
		}
		return err
	}
	return nil
}

// StopContinuousRecording ends a camera's continuous recording loop.
func (f *Fleet) StopContinuousRecording(id string) error {
	entry, err := f.get(id)
	if err != nil {
		return err
	}
	if err := entry.StopContinuous(); err != nil {
		if err == recorder.ErrNotRecording {
			return ErrNotRecording
		}
		return err
	}
	return nil
}

// Close stops every camera entry and the event dispatcher.
func (f *Fleet) Close() {
	f.mu.Lock()
	entries := make([]*Entry, 0, len(f.entries))
	for _, e := range f.entries {
		entries = append(entries, e)
	}
	f.entries = make(map[string]*Entry)
	f.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *Entry) {
			defer wg.Done()
			e.stop()
		}(e)
	}
	wg.Wait()

	f.pool.Close()

	if f.disp != nil {
		f.disp.Close()
	}
}
