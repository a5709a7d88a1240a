package recorder

import (
	"image"
	"strings"
	"testing"
	"time"
)

func TestClipPathFollowsDatePartitionedLayout(t *testing.T) {
	r := New("cam1", t.TempDir(), 30)
	now := time.Date(2026, 7, 29, 14, 5, 0, 0, time.UTC)

	path, err := r.clipPath(now)
	if err != nil {
		t.Fatalf("clipPath: %v", err)
	}
	if !strings.Contains(path, "cam1_20260729_140500.mp4") {
		t.Fatalf("unexpected clip filename: %s", path)
	}
	if !strings.Contains(path, "camera_cam1_20260729") {
		t.Fatalf("expected date-partitioned directory, got %s", path)
	}
}

func TestStopWithoutStartReturnsErrNotRecording(t *testing.T) {
	r := New("cam1", t.TempDir(), 30)
	if err := r.Stop(); err != ErrNotRecording {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestWriteWithoutStartReturnsErrNotRecording(t *testing.T) {
	r := New("cam1", t.TempDir(), 30)
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	if err := r.Write(img, time.Now()); err != ErrNotRecording {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestIsRecordingDefaultsFalse(t *testing.T) {
	r := New("cam1", t.TempDir(), 30)
	if r.IsRecording() {
		t.Fatalf("expected IsRecording to be false before Start")
	}
}
