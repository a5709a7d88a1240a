// Package events implements the fire-and-forget EventDispatcher: screenshot
// and clip events are queued and fanned out to a websocket hub (the "chat
// platform" channel) and an injected Notifier (the "email" channel)
// without ever blocking the caller.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two event types the fleet emits.
type Kind int

const (
	// KindScreenshot fires when motion crosses into an armed zone and a
	// screenshot is taken.
	KindScreenshot Kind = iota
	// KindClip fires when a short recorded clip completes.
	KindClip
)

// Event is one occurrence the fleet reports to the outside world. ID is
// assigned by NewEvent so external sinks (chat, email) can tell events
// apart, grounded on MotionEvent.ID in the teacher's event model; the
// Dispatcher delivers each event once and does not retry.
// One Event is submitted per notification subscriber, so SubscriberID
// tells the sink who it's for.
type Event struct {
	ID           string
	Kind         Kind
	CameraID     string
	SubscriberID string
	Timestamp    time.Time
	Path         string // screenshot or clip file path
	ObjectCount  int
}

// NewEvent builds an Event with a fresh ID, addressed to one subscriber.
func NewEvent(kind Kind, cameraID, subscriberID string, ts time.Time, path string, objectCount int) Event {
	return Event{
		ID:           uuid.NewString(),
		Kind:         kind,
		CameraID:     cameraID,
		SubscriberID: subscriberID,
		Timestamp:    ts,
		Path:         path,
		ObjectCount:  objectCount,
	}
}

// Notifier is the narrow external collaborator for out-of-band alerts
// (email, chat bot, etc.), grounded on internal/telegram/bot.go's
// enabled/cooldown-gated SendMessage.
type Notifier interface {
	Notify(ev Event) error
}
