package events

import (
	"encoding/json"
	"fmt"
	"log"
)

// Dispatcher queues events and drains them on a background goroutine so
// that Submit never blocks the caller (the fleet's hot path). Submissions
// that arrive while the queue is full are dropped, matching spec.md's
// EventDispatchFailed contract: dispatch failures never propagate back to
// the caller that detected motion.
type Dispatcher struct {
	queue     chan Event
	hub       *Hub
	notifier  Notifier
	logger    *log.Logger
	done      chan struct{}
}

// NewDispatcher starts a Dispatcher with the given queue depth. hub and
// notifier may be nil if that channel isn't wired up.
func NewDispatcher(queueSize int, hub *Hub, notifier Notifier, logger *log.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		queue:    make(chan Event, queueSize),
		hub:      hub,
		notifier: notifier,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit enqueues ev for dispatch. If the queue is full the event is
// dropped and logged rather than blocking the caller.
func (d *Dispatcher) Submit(ev Event) {
	select {
	case d.queue <- ev:
	default:
		d.logger.Printf("[EventDispatcher] queue full, dropping event for camera %s", ev.CameraID)
	}
}

// Close stops the dispatcher once the queue drains.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	if d.hub != nil {
		data, err := json.Marshal(ev)
		if err != nil {
			d.logger.Printf("[EventDispatcher] marshal event: %v", err)
		} else {
			d.hub.BroadcastToCamera(ev.CameraID, data)
		}
	}

	if d.notifier != nil {
		if err := d.notifier.Notify(ev); err != nil {
			d.logger.Printf("[EventDispatcher] notify failed for camera %s: %v", ev.CameraID, err)
		}
	}
}

var _ fmt.Stringer = Kind(0)

// String implements fmt.Stringer for Kind.
func (k Kind) String() string {
	switch k {
	case KindScreenshot:
		return "screenshot"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}
