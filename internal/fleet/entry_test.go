package fleet

import (
	"sync"
	"testing"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/events"
	"github.com/AnHumenny/video-surveillance/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Notify(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

func newTestEntry(t *testing.T, repo repository.Repository, notifier events.Notifier) (*Entry, *events.Dispatcher) {
	t.Helper()
	disp := events.NewDispatcher(16, nil, notifier, nil)
	opts := EntryOptions{
		QueueCapacity: 4,
		FPS:           10,
		Dispatcher:    disp,
		Repo:          repo,
	}
	e := newEntry(repository.CameraConfig{ID: "cam1", URL: "rtsp://x"}, opts)
	return e, disp
}

func TestDispatchSubscriberEventsFansOutOnePerSubscriber(t *testing.T) {
	repo := &stubRepo{subscribers: map[string][]repository.Subscriber{
		"cam1": {{CameraID: "cam1", ID: "sub-a"}, {CameraID: "cam1", ID: "sub-b"}, {CameraID: "cam1", ID: "sub-c"}},
	}}
	n := &recordingNotifier{}
	e, disp := newTestEntry(t, repo, n)

	e.dispatchSubscriberEvents(events.KindScreenshot, time.Now(), "/tmp/shot.jpg", 1)
	disp.Close()

	got := n.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 fanned-out events, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, ev := range got {
		if ev.CameraID != "cam1" {
			t.Fatalf("expected CameraID cam1, got %s", ev.CameraID)
		}
		seen[ev.SubscriberID] = true
	}
	for _, want := range []string{"sub-a", "sub-b", "sub-c"} {
		if !seen[want] {
			t.Fatalf("expected an event addressed to %s", want)
		}
	}
}

func TestDispatchSubscriberEventsNoSubscribersSubmitsNothing(t *testing.T) {
	repo := &stubRepo{}
	n := &recordingNotifier{}
	e, disp := newTestEntry(t, repo, n)

	e.dispatchSubscriberEvents(events.KindScreenshot, time.Now(), "/tmp/shot.jpg", 1)
	disp.Close()

	if got := n.snapshot(); len(got) != 0 {
		t.Fatalf("expected no events with no subscribers, got %d", len(got))
	}
}
