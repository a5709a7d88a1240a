// Package stream serves a live MJPEG multipart view of a camera's decoded
// frames over HTTP, the way internal/stream/mjpeg.go did for the teacher's
// own camera feeds. Unlike the teacher, a Broadcaster never opens its own
// ffmpeg process: frames arrive already decoded by internal/capture and
// already own their single-reader invariant, so the broadcaster only fans
// them out to any number of slow HTTP clients without blocking the camera
// reader goroutine that feeds it.
package stream

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"sync"
)

// Broadcaster fans a single camera's JPEG frames out to any number of
// connected MJPEG viewers. A slow or stalled client never blocks Publish:
// frames destined for it are dropped rather than queued.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan []byte]bool
}

// NewBroadcaster creates an empty Broadcaster for one camera.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan []byte]bool)}
}

// Publish JPEG-encodes img and fans it out to every connected client.
func (b *Broadcaster) Publish(img image.Image) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return
	}
	frame := buf.Bytes()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// ServeHTTP streams frames to a client as multipart/x-mixed-replace until
// the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := make(chan []byte, 4)
	b.mu.Lock()
	b.clients[client] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.clients, client)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-client:
			if !ok {
				return
			}
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))
			w.Write(frame)
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
	}
}

// ClientCount reports how many viewers are currently connected.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Hub owns one Broadcaster per camera, created lazily on first use so the
// fleet doesn't need to know at startup which cameras will ever be viewed.
type Hub struct {
	mu    sync.RWMutex
	byCam map[string]*Broadcaster
}

// NewHub creates an empty per-camera broadcaster registry.
func NewHub() *Hub {
	return &Hub{byCam: make(map[string]*Broadcaster)}
}

// Broadcaster returns the Broadcaster for cameraID, creating it on first
// use.
func (h *Hub) Broadcaster(cameraID string) *Broadcaster {
	h.mu.RLock()
	b, ok := h.byCam[cameraID]
	h.mu.RUnlock()
	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.byCam[cameraID]; ok {
		return b
	}
	b = NewBroadcaster()
	h.byCam[cameraID] = b
	return b
}

// Publish fans a frame out to cameraID's viewers, creating its broadcaster
// on first use.
func (h *Hub) Publish(cameraID string, img image.Image) {
	h.Broadcaster(cameraID).Publish(img)
}

// ServeHTTP extracts a camera ID from the request path and streams that
// camera's live view: for /cameras/{id}/stream it is the segment before
// "stream", otherwise the trailing segment.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	cameraID := parts[len(parts)-1]
	if cameraID == "stream" && len(parts) >= 2 {
		cameraID = parts[len(parts)-2]
	}
	h.Broadcaster(cameraID).ServeHTTP(w, r)
}
