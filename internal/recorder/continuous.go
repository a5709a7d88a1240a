package recorder

import (
	"sync"
	"time"
)

// ContinuousLoop repeatedly starts a new fixed-duration clip as soon as
// the previous one finishes, grounded on start_continuous_recording /
// stop_continuous_recording / record_loop in camera_manager.py (which
// loops 30s clips while a flag remains set).
type ContinuousLoop struct {
	rec      *Recorder
	duration time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewContinuousLoop wraps rec to produce back-to-back clips of the given
// duration until Stop is called.
func NewContinuousLoop(rec *Recorder, duration time.Duration) *ContinuousLoop {
	return &ContinuousLoop{rec: rec, duration: duration}
}

// Start begins the continuous recording loop. feed is called once per
// clip iteration and must push frames into the returned Recorder until it
// returns; the loop restarts a fresh clip immediately after.
func (c *ContinuousLoop) Start(feed func(rec *Recorder, stop <-chan struct{})) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stop := c.stopCh
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}

			if err := c.rec.Start(time.Now(), c.duration); err != nil {
				return
			}
			feed(c.rec, stop)
			c.rec.Stop()
		}
	}()
	return nil
}

// Stop signals the continuous loop to end and returns without waiting.
// The feed returns on the signal, so the in-progress clip is cut short
// and stopped rather than run to its full duration.
func (c *ContinuousLoop) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRecording
	}
	c.running = false
	close(c.stopCh)
	return nil
}

// Running reports whether the loop is active.
func (c *ContinuousLoop) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
