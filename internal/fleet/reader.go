package fleet

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/capture"
	"github.com/AnHumenny/video-surveillance/internal/queue"
)

// start launches the reader goroutine: it owns e.source exclusively (the
// single-capture invariant) and feeds decoded frames into e.queue until
// the entry is stopped.
//
// Grounded on _start_camera_reader / _try_reconnect in
// surveillance/camera_manager.py: a read failure moves the entry to
// DegradedRead, then Reconnecting for up to ReconnectAttempts tries spaced
// ReconnectDelay apart; if all fail the reader keeps retrying every
// RetryBackoff (the "else: await asyncio.sleep(1)" steady-state loop)
// rather than giving up permanently, since an RTSP camera can come back
// at any time.
func (e *Entry) start() error {
	src, err := e.openWithTimeout()
	if err != nil {
		return ErrOpenFailed
	}

	e.mu.Lock()
	e.source = src
	e.status = StatusConnected
	e.mu.Unlock()

	e.wg.Add(1)
	go e.readLoop()
	return nil
}

// openWithTimeout opens the capture source and, if ConnectTimeout is set,
// blocks for up to that long waiting on the first decoded frame before
// declaring the camera unreachable. Grounded on cv2.VideoCapture's
// CAP_PROP_OPEN_TIMEOUT_MSEC handling in camera_manager.py, which bounds
// how long a dead RTSP endpoint is allowed to stall startup.
func (e *Entry) openWithTimeout() (*capture.Source, error) {
	src, err := capture.Open(e.cfg.URL, capture.Options{
		Transport: e.rtspTransport,
		FPS:       e.fps,
		Width:     e.streamWidth,
		Height:    e.streamHeight,
		Logger:    e.logger,
	})
	if err != nil {
		return nil, err
	}
	if e.connectTO <= 0 {
		return src, nil
	}

	type firstFrame struct {
		img image.Image
		ts  time.Time
		err error
	}
	ch := make(chan firstFrame, 1)
	go func() {
		img, ts, err := src.Read()
		ch <- firstFrame{img, ts, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			src.Close()
			return nil, res.err
		}
		e.queue.Push(queue.Frame{Image: res.img, Timestamp: res.ts, Seq: e.seq.Add(1)})
		e.mu.Lock()
		e.lastFrame = res.ts
		e.mu.Unlock()
		return src, nil
	case <-time.After(e.connectTO):
		src.Close()
		return nil, fmt.Errorf("fleet: connect timeout after %s", e.connectTO)
	}
}

func (e *Entry) readLoop() {
	defer e.wg.Done()

	frameInterval := time.Duration(0)
	if e.fps > 0 {
		frameInterval = time.Duration(float64(time.Second) / e.fps)
	}

	for {
		select {
		case <-e.ctx.Done():
			e.closeSource()
			return
		default:
		}

		img, ts, err := e.readOne()
		if err != nil {
			e.mu.Lock()
			e.lastErr = err
			e.mu.Unlock()

			if e.ctx.Err() != nil {
				e.closeSource()
				return
			}
			if !e.reconnect() {
				e.setStatus(StatusFailed)
				return
			}
			continue
		}

		e.queue.Push(queue.Frame{Image: img, Timestamp: ts, Seq: e.seq.Add(1)})
		e.mu.Lock()
		e.lastFrame = ts
		e.mu.Unlock()

		if e.viewers != nil {
			e.viewers.Publish(img)
		}

		if frameInterval > 0 {
			select {
			case <-e.ctx.Done():
				e.closeSource()
				return
			case <-time.After(frameInterval):
			}
		}
	}
}

func (e *Entry) readOne() (img image.Image, ts time.Time, err error) {
	e.mu.RLock()
	src := e.source
	e.mu.RUnlock()

	if src == nil {
		return nil, time.Time{}, errors.New("fleet: no capture source")
	}

	frame, timestamp, readErr := src.Read()
	if readErr != nil {
		if errors.Is(readErr, io.EOF) {
			e.setStatus(StatusDegradedRead)
		}
		return nil, time.Time{}, readErr
	}
	return frame, timestamp, nil
}

// reconnect runs the 3-attempts/2s-apart reconnect sequence, then falls
// back to a steady RetryBackoff retry loop until it succeeds or the entry
// is stopped. It returns false only when the entry was stopped mid-retry.
func (e *Entry) reconnect() bool {
	e.setStatus(StatusReconnecting)
	e.closeSource()

	attempt := 0
	for {
		attempt++
		select {
		case <-e.ctx.Done():
			return false
		default:
		}

		src, err := e.openWithTimeout()
		if err == nil {
			e.mu.Lock()
			e.source = src
			e.status = StatusConnected
			e.mu.Unlock()
			return true
		}

		delay := e.reconnectGap
		if attempt > e.reconnectN {
			delay = e.retryBackoff
		}

		select {
		case <-e.ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
}

func (e *Entry) closeSource() {
	e.mu.Lock()
	src := e.source
	e.source = nil
	e.mu.Unlock()
	if src != nil {
		src.Close()
	}
}
