// Package capture opens an RTSP (or HTTP/v4l2) source and decodes it into
// a stream of JPEG frames by shelling out to ffmpeg, the way
// internal/pipeline/frame_provider.go and internal/camera/camera.go both
// do in the teacher codebase.
package capture

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Source is a single open camera capture. Exactly one goroutine may call
// Read at a time, matching the single-capture invariant of the fleet's
// Reader task.
type Source struct {
	url       string
	transport string
	fps       float64

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	buf    bytes.Buffer

	mu     sync.Mutex
	closed bool

	logger *log.Logger
}

// Options configures an opened Source.
type Options struct {
	Transport string // "tcp" or "udp", RTSP only
	FPS       float64
	Width     int // v4l2 capture width; ignored for rtsp/http sources
	Height    int // v4l2 capture height; ignored for rtsp/http sources
	Logger    *log.Logger
}

// Open starts ffmpeg against url and blocks until the process has
// launched. It does not wait for the first frame; callers needing a
// "connected" guarantee should call Read once with a deadline.
func Open(url string, opts Options) (*Source, error) {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Transport == "" {
		opts.Transport = "tcp"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	args := buildArgs(url, opts)
	cmd := exec.Command("ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start ffmpeg: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			// ffmpeg logs its own diagnostics to stderr; discard unless
			// a caller later wants verbose capture debugging.
		}
	}()

	return &Source{
		url:       url,
		transport: opts.Transport,
		fps:       opts.FPS,
		cmd:       cmd,
		stdout:    stdout,
		reader:    bufio.NewReaderSize(stdout, 64*1024),
		logger:    opts.Logger,
	}, nil
}

func buildArgs(url string, opts Options) []string {
	switch {
	case strings.HasPrefix(url, "rtsp://"):
		return []string{
			"-rtsp_transport", opts.Transport,
			"-i", url,
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-r", fmt.Sprintf("%.2f", opts.FPS),
			"-q:v", "5",
			"-",
		}
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return []string{
			"-i", url,
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-r", fmt.Sprintf("%.2f", opts.FPS),
			"-q:v", "5",
			"-",
		}
	default:
		args := []string{"-f", "v4l2"}
		if opts.Width > 0 && opts.Height > 0 {
			args = append(args, "-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height))
		}
		return append(args,
			"-framerate", fmt.Sprintf("%.2f", opts.FPS),
			"-i", url,
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-q:v", "5",
			"-",
		)
	}
}

// Read blocks until the next full JPEG frame arrives on the ffmpeg pipe,
// decodes it and returns it. Read returns io.EOF once ffmpeg exits.
func (s *Source) Read() (image.Image, time.Time, error) {
	chunk := make([]byte, 8192)
	for {
		if frame := extractJPEGFrame(&s.buf); frame != nil {
			img, err := jpeg.Decode(bytes.NewReader(frame))
			if err != nil {
				s.logger.Printf("capture: decode jpeg: %v", err)
				continue
			}
			return img, time.Now(), nil
		}

		n, err := s.reader.Read(chunk)
		if n > 0 {
			s.buf.Write(chunk[:n])
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("capture: read: %w", err)
		}
	}
}

// extractJPEGFrame pulls one complete JPEG frame (FFD8..FFD9) out of buf,
// discarding everything up to and including it. It returns nil if no
// complete frame is buffered yet, grounded on the same scheme
// internal/pipeline/frame_provider.go uses.
func extractJPEGFrame(buf *bytes.Buffer) []byte {
	data := buf.Bytes()
	if len(data) < 4 {
		return nil
	}

	start := -1
	for i := 0; i < len(data)-1; i++ {
		if data[i] == 0xFF && data[i+1] == 0xD8 {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	end := -1
	for i := start + 2; i < len(data)-1; i++ {
		if data[i] == 0xFF && data[i+1] == 0xD9 {
			end = i + 2
			break
		}
	}
	if end == -1 {
		return nil
	}

	frame := make([]byte, end-start)
	copy(frame, data[start:end])

	remaining := make([]byte, len(data)-end)
	copy(remaining, data[end:])
	buf.Reset()
	buf.Write(remaining)

	return frame
}

// Close terminates the underlying ffmpeg process. Safe to call more than
// once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cmd.Process != nil {
		return s.cmd.Process.Kill()
	}
	return nil
}
