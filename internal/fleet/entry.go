package fleet

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/capture"
	"github.com/AnHumenny/video-surveillance/internal/events"
	"github.com/AnHumenny/video-surveillance/internal/motion"
	"github.com/AnHumenny/video-surveillance/internal/queue"
	"github.com/AnHumenny/video-surveillance/internal/recorder"
	"github.com/AnHumenny/video-surveillance/internal/repository"
	"github.com/AnHumenny/video-surveillance/internal/stream"
	"github.com/AnHumenny/video-surveillance/internal/workerpool"
)

// Entry is one camera's full runtime state: its capture source, bounded
// frame queue, motion detector, recorder and reconnect status. Exactly
// one reader goroutine owns Entry.source at a time (the single-capture
// invariant); everything else may be read concurrently through the
// exported accessor methods.
type Entry struct {
	id     string
	cfg    repository.CameraConfig
	logger *log.Logger

	queueCapacity int
	fps           float64
	connectTO     time.Duration
	reconnectN    int
	reconnectGap  time.Duration
	retryBackoff  time.Duration
	rtspTransport string
	streamWidth   int
	streamHeight  int

	queue        *queue.FrameQueue
	detector     *motion.Detector
	rec          *recorder.Recorder
	continuous   *recorder.ContinuousLoop
	dispatcher   *events.Dispatcher
	pool         *workerpool.Pool
	viewers      *stream.Broadcaster
	mediaRoot    string
	repo         repository.Repository
	clipDuration time.Duration

	mu        sync.RWMutex
	status    Status
	source    *capture.Source
	lastErr   error
	lastFrame time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	seq atomic.Uint64
}

// EntryOptions configures a new Entry.
type EntryOptions struct {
	QueueCapacity      int
	FPS                float64
	ConnectTimeout     time.Duration
	ReconnectAttempts  int
	ReconnectDelay     time.Duration
	RetryBackoff       time.Duration
	RTSPTransport      string
	StreamWidth        int
	StreamHeight       int
	MinContourArea     float64
	MaxTrackerDistance float64
	TrackerStaleness   time.Duration
	ScreenshotDebounce time.Duration
	ClipDuration       time.Duration
	MediaRoot          string
	Logger             *log.Logger
	Dispatcher         *events.Dispatcher
	Pool               *workerpool.Pool
	Viewers            *stream.Hub
	Repo               repository.Repository
}

func newEntry(cfg repository.CameraConfig, opts EntryOptions) *Entry {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	var viewers *stream.Broadcaster
	if opts.Viewers != nil {
		viewers = opts.Viewers.Broadcaster(cfg.ID)
	}
	return &Entry{
		id:            cfg.ID,
		cfg:           cfg,
		logger:        opts.Logger,
		queueCapacity: opts.QueueCapacity,
		fps:           opts.FPS,
		connectTO:     opts.ConnectTimeout,
		reconnectN:    opts.ReconnectAttempts,
		reconnectGap:  opts.ReconnectDelay,
		retryBackoff:  opts.RetryBackoff,
		rtspTransport: opts.RTSPTransport,
		streamWidth:   opts.StreamWidth,
		streamHeight:  opts.StreamHeight,
		queue:         queue.New(opts.QueueCapacity),
		detector: motion.New(motion.Config{
			MinContourArea:     opts.MinContourArea,
			MaxTrackerDistance: opts.MaxTrackerDistance,
			TrackerStaleness:   opts.TrackerStaleness,
			ScreenshotDebounce: opts.ScreenshotDebounce,
		}),
		rec:          recorder.New(cfg.ID, opts.MediaRoot, opts.FPS),
		mediaRoot:    opts.MediaRoot,
		dispatcher:   opts.Dispatcher,
		pool:         opts.Pool,
		viewers:      viewers,
		repo:         opts.Repo,
		clipDuration: opts.ClipDuration,
		status:       StatusConnected,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// ID returns the camera identifier.
func (e *Entry) ID() string { return e.id }

// Config returns the entry's persisted configuration.
func (e *Entry) Config() repository.CameraConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Status returns the entry's current reconnect-state-machine status.
func (e *Entry) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Entry) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// LastError returns the most recent read/reconnect error observed by the
// reader goroutine, or nil if none has occurred since the entry started.
func (e *Entry) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// LatestFrame returns the newest frame pulled off the queue without
// removing it, or ok=false if none has arrived yet.
func (e *Entry) LatestFrame() (image.Image, time.Time, bool) {
	f, ok := e.queue.Latest()
	if !ok {
		return nil, time.Time{}, false
	}
	return f.Image, f.Timestamp, true
}

// Detector returns the entry's motion detector.
func (e *Entry) Detector() *motion.Detector { return e.detector }

// Recorder returns the entry's clip recorder.
func (e *Entry) Recorder() *recorder.Recorder { return e.rec }

// StartContinuous begins a continuously looping recording, restarting a
// fresh clip of the given duration as soon as the previous one finishes,
// grounded on start_continuous_recording in camera_manager.py.
func (e *Entry) StartContinuous(clipDuration time.Duration) error {
	e.mu.Lock()
	if e.continuous != nil && e.continuous.Running() {
		e.mu.Unlock()
		return recorder.ErrAlreadyRecording
	}
	e.continuous = recorder.NewContinuousLoop(e.rec, clipDuration)
	loop := e.continuous
	e.mu.Unlock()

	interval := time.Second
	if e.fps > 0 {
		interval = time.Duration(float64(time.Second) / e.fps)
	}

	return loop.Start(func(rec *recorder.Recorder, stop <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if img, ts, ok := e.LatestFrame(); ok {
					rec.Write(img, ts)
				}
				if !rec.IsRecording() {
					return
				}
			}
		}
	})
}

// StopContinuous ends the continuous recording loop started by
// StartContinuous.
func (e *Entry) StopContinuous() error {
	e.mu.RLock()
	loop := e.continuous
	e.mu.RUnlock()
	if loop == nil {
		return recorder.ErrNotRecording
	}
	return loop.Stop()
}

// StopRecording ends the camera's in-progress fixed-duration clip and, on
// success, fans out its completion as one ClipEvent per subscriber.
func (e *Entry) StopRecording() error {
	path := e.rec.ClipPath()
	if err := e.rec.Stop(); err != nil {
		return err
	}
	e.dispatchSubscriberEvents(events.KindClip, time.Now(), path, 0)
	return nil
}

// GetFrame is the per-call hot path behind Fleet.GetFrame: it waits for a
// frame, optionally resets and re-zones the detector, runs motion
// detection when requested, and triggers the screenshot/clip side
// effects, per spec.md §4.7's ordering guarantees.
func (e *Entry) GetFrame(ctx context.Context, opts GetFrameOptions, timeout time.Duration) (image.Image, time.Time, error) {
	frame, ok := e.queue.Wait(ctx, timeout)
	if !ok {
		return nil, time.Time{}, ErrTimeout
	}
	img, ts := frame.Image, frame.Timestamp

	if opts.ShouldReset {
		e.detector.Reset()
	}
	if opts.Zone != nil {
		z := motion.NewZone(*opts.Zone)
		e.detector.SetZone(&z)
	}

	if !opts.Motion {
		return img, ts, nil
	}

	e.mu.RLock()
	sendChatVideo := e.cfg.SendChatVideo
	e.mu.RUnlock()

	state := e.detect(img, ts)
	out := motion.Annotate(img, state, e.detector.CurrentZone(), e.rec.IsRecording())

	if opts.SaveScreenshot && state.NewZoneEntry && e.detector.ShouldScreenshot(ts) {
		if path, err := e.saveScreenshot(img, ts); err != nil {
			e.logger.Printf("[Fleet] camera %s: save screenshot: %v", e.id, err)
		} else {
			e.dispatchSubscriberEvents(events.KindScreenshot, ts, path, state.ObjectCount)
		}
	}

	if sendChatVideo && state.NewZoneEntry && !e.rec.IsRecording() {
		e.startEventClip(e.clipDuration)
	}

	return out, ts, nil
}

// detect runs the detector's CPU-bound pixel work on the shared worker
// pool, blocking the calling task for the result — detection inside
// GetFrame runs on the calling task per spec.md §5, while the actual
// background-subtraction/contour work is offloaded.
func (e *Entry) detect(img image.Image, ts time.Time) motion.State {
	if e.pool == nil {
		return e.detector.Detect(img, ts)
	}
	done := make(chan motion.State, 1)
	e.pool.Submit(func() {
		done <- e.detector.Detect(img, ts)
	})
	return <-done
}

// startEventClip spawns a background recorder task for one event-triggered
// clip, writing frames off the live queue until the clip's duration
// elapses, then fans out its completion as one ClipEvent per subscriber.
// Grounded on the "should_record" redesign note in spec.md §9: the
// decision to call this is made exactly once per trigger by GetFrame.
func (e *Entry) startEventClip(duration time.Duration) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	now := time.Now()
	if err := e.rec.Start(now, duration); err != nil {
		return
	}

	interval := time.Second
	if e.fps > 0 {
		interval = time.Duration(float64(time.Second) / e.fps)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.ctx.Done():
				if e.rec.IsRecording() {
					path := e.rec.ClipPath()
					e.rec.Stop()
					e.dispatchSubscriberEvents(events.KindClip, time.Now(), path, 0)
				}
				return
			case <-ticker.C:
				if img, ts, ok := e.LatestFrame(); ok {
					e.rec.Write(img, ts)
				}
				if !e.rec.IsRecording() {
					e.dispatchSubscriberEvents(events.KindClip, time.Now(), e.rec.ClipPath(), 0)
					return
				}
			}
		}
	}()
}

// dispatchSubscriberEvents submits one Event per notification subscriber
// registered for this camera, per spec.md §4.7 step 3/4 and §6 ("one
// ScreenshotEvent per subscriber"). With no repository wired, or no
// subscribers registered, nothing is submitted.
func (e *Entry) dispatchSubscriberEvents(kind events.Kind, ts time.Time, path string, objectCount int) {
	if e.dispatcher == nil || e.repo == nil {
		return
	}
	subs, err := e.repo.ListNotificationSubscribers(context.Background(), e.id)
	if err != nil {
		e.logger.Printf("[Fleet] camera %s: list notification subscribers: %v", e.id, err)
		return
	}
	for _, sub := range subs {
		e.dispatcher.Submit(events.NewEvent(kind, e.id, sub.ID, ts, path, objectCount))
	}
}

// saveScreenshot writes img under
// <mediaRoot>/screenshots/camera_<id>/<YYYY-MM-DD>/<id>_<timestamp>.jpg.
func (e *Entry) saveScreenshot(img image.Image, ts time.Time) (string, error) {
	dir := filepath.Join(e.mediaRoot, "screenshots", fmt.Sprintf("camera_%s", e.id), ts.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.jpg", e.id, ts.Format("150405.000")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return path, nil
}

// stop cancels the reader goroutine and waits for it to exit.
func (e *Entry) stop() {
	e.cancel()
	e.wg.Wait()

	e.mu.RLock()
	loop := e.continuous
	e.mu.RUnlock()
	if loop != nil {
		loop.Stop()
	}
}
