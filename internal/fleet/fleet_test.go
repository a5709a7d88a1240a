package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/AnHumenny/video-surveillance/internal/repository"
)

type stubRepo struct {
	cameras       []repository.CameraConfig
	zones         map[string]repository.Zone
	subscribers   map[string][]repository.Subscriber
}

func (s *stubRepo) ListCameras(ctx context.Context) ([]repository.CameraConfig, error) {
	return s.cameras, nil
}

func (s *stubRepo) GetCamera(ctx context.Context, id string) (repository.CameraConfig, error) {
	for _, c := range s.cameras {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.CameraConfig{}, repository.ErrNotFound
}

func (s *stubRepo) GetZone(ctx context.Context, cameraID string) (repository.Zone, bool, error) {
	z, ok := s.zones[cameraID]
	return z, ok, nil
}

func (s *stubRepo) UpdateZone(ctx context.Context, zone repository.Zone) error {
	if s.zones == nil {
		s.zones = make(map[string]repository.Zone)
	}
	s.zones[zone.CameraID] = zone
	return nil
}

func (s *stubRepo) ListNotificationSubscribers(ctx context.Context, cameraID string) ([]repository.Subscriber, error) {
	return s.subscribers[cameraID], nil
}

func newTestFleet() *Fleet {
	repo := &stubRepo{}
	return New(repo, nil, Options{QueueCapacity: 4, FPS: 10})
}

func TestAddCameraRejectsEmptyURL(t *testing.T) {
	f := newTestFleet()
	err := f.AddCamera(context.Background(), repository.CameraConfig{ID: "cam1"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestSnapshotUnknownCamera(t *testing.T) {
	f := newTestFleet()
	_, _, err := f.Snapshot("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetFrameUnknownCamera(t *testing.T) {
	f := newTestFleet()
	_, _, err := f.GetFrame(context.Background(), "missing", GetFrameOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestReloadStopsRemovedAndKeepsIntersectionUntouched exercises the
// diff logic scenario S3 describes without exercising real camera
// capture: entries are seeded directly into the fleet's map (as
// LoadAll/addLocked would, minus the actual decoder) so the test stays
// hermetic.
func TestReloadStopsRemovedAndKeepsIntersectionUntouched(t *testing.T) {
	repo := &stubRepo{cameras: []repository.CameraConfig{
		{ID: "A", URL: "rtsp://a", Enabled: true},
		{ID: "B", URL: "rtsp://b", Enabled: true},
	}}
	f := New(repo, nil, Options{QueueCapacity: 4, FPS: 10})

	entryA := newEntry(repo.cameras[0], f.entryOptions())
	entryB := newEntry(repo.cameras[1], f.entryOptions())
	f.mu.Lock()
	f.entries["A"] = entryA
	f.entries["B"] = entryB
	f.mu.Unlock()

	repo.cameras = []repository.CameraConfig{
		{ID: "A", URL: "rtsp://a", Enabled: true},
	}
	if err := f.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if _, err := f.get("B"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected entry B to be removed, got err=%v", err)
	}
	aAfter, err := f.get("A")
	if err != nil {
		t.Fatalf("expected entry A to remain: %v", err)
	}
	if aAfter != entryA {
		t.Fatalf("expected entry A to be left untouched across Reload")
	}
}

func TestReloadRepoUnavailable(t *testing.T) {
	f := New(&failingListRepo{}, nil, Options{QueueCapacity: 4, FPS: 10})
	if err := f.Reload(context.Background()); !errors.Is(err, ErrRepoUnavailable) {
		t.Fatalf("expected ErrRepoUnavailable, got %v", err)
	}
}

type failingListRepo struct{ stubRepo }

func (f *failingListRepo) ListCameras(ctx context.Context) ([]repository.CameraConfig, error) {
	return nil, errors.New("repo down")
}

func TestRemoveCameraUnknownReturnsNotFound(t *testing.T) {
	f := newTestFleet()
	if err := f.RemoveCamera("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusUnknownCamera(t *testing.T) {
	f := newTestFleet()
	if _, err := f.Status("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartStopRecordingUnknownCamera(t *testing.T) {
	f := newTestFleet()
	if err := f.StartRecording("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.StopRecording("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartStopContinuousRecordingUnknownCamera(t *testing.T) {
	f := newTestFleet()
	if err := f.StartContinuousRecording("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.StopContinuousRecording("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLastErrorUnknownCamera(t *testing.T) {
	f := newTestFleet()
	if _, err := f.LastError("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestViewersReturnsDistinctBroadcasterPerCamera(t *testing.T) {
	f := newTestFleet()
	a := f.Viewers().Broadcaster("cam1")
	b := f.Viewers().Broadcaster("cam2")
	if a == b {
		t.Fatal("expected distinct broadcasters for distinct cameras")
	}
}
