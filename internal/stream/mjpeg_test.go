package stream

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func solidImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	return img
}

func TestBroadcasterPublishReachesConnectedClient(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/cameras/cam-1/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Give ServeHTTP time to register its client channel before publishing.
	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 connected client, got %d", b.ClientCount())
	}

	b.Publish(solidImage())

	// Let ServeHTTP write the frame, then disconnect the client before
	// reading the recorded body.
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done
	if !strings.Contains(rec.Body.String(), "Content-Type: image/jpeg") {
		t.Fatalf("expected the published frame in the stream body, got %q", rec.Body.String())
	}
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	done := make(chan struct{})
	go func() {
		b.Publish(solidImage())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no connected clients")
	}
}

func TestHubCreatesBroadcasterPerCameraLazily(t *testing.T) {
	h := NewHub()
	a := h.Broadcaster("cam-a")
	b := h.Broadcaster("cam-a")
	if a != b {
		t.Fatal("expected the same broadcaster instance for repeated lookups of the same camera")
	}
	c := h.Broadcaster("cam-b")
	if a == c {
		t.Fatal("expected distinct broadcasters for distinct cameras")
	}
}
