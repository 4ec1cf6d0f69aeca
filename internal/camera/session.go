// Package camera owns the ffmpeg-backed capture session and frame sampling.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrCameraUnavailable indicates the device is absent, busy, or access was denied.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrNoFrame indicates the session is inactive or no complete frame has arrived yet.
	ErrNoFrame = errors.New("no camera frame available")
	// ErrAlreadyActive indicates Start was called on a running session.
	ErrAlreadyActive = errors.New("capture session already active")
)

// startupProbe is how long ffmpeg gets to prove the device opened.
const startupProbe = 400 * time.Millisecond

// Config selects the capture device and frame geometry.
type Config struct {
	FFmpegBinary string
	Device       string
	InputFormat  string
	Width        int
	Height       int
	Framerate    int
}

func (c Config) withDefaults() Config {
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	if c.Device == "" {
		c.Device = "/dev/video0"
	}
	if c.InputFormat == "" {
		c.InputFormat = "v4l2"
	}
	if c.Width <= 0 {
		c.Width = 1920
	}
	if c.Height <= 0 {
		c.Height = 1080
	}
	if c.Framerate <= 0 {
		c.Framerate = 30
	}
	return c
}

// Session streams MJPEG frames from one ffmpeg subprocess and retains only the
// most recent complete frame for sampling. Start/Stop form the full lifecycle;
// Stop is idempotent and releases the device deterministically.
type Session struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	active  bool
	frame   []byte
	process *os.Process
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	waitErr <-chan error
}

// NewSession constructs an inactive capture session.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	return &Session{cfg: cfg.withDefaults(), logger: logger}
}

// Start launches ffmpeg against the configured device and begins retaining
// frames. A device that cannot be opened surfaces ErrCameraUnavailable and
// leaves the session inactive.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.mu.Unlock()

	cfg := s.cfg
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", cfg.InputFormat,
		"-framerate", strconv.Itoa(cfg.Framerate),
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-i", cfg.Device,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "4",
		"-",
	}

	cmd := exec.CommandContext(ctx, cfg.FFmpegBinary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrCameraUnavailable, cfg.FFmpegBinary, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An immediate exit means the device never opened.
	select {
	case err := <-waitErr:
		detail := bytes.TrimSpace(stderr.Bytes())
		if len(detail) > 0 {
			return fmt.Errorf("%w: %s (%v)", ErrCameraUnavailable, detail, err)
		}
		return fmt.Errorf("%w: ffmpeg exited before capture started (%v)", ErrCameraUnavailable, err)
	case <-time.After(startupProbe):
	}

	s.mu.Lock()
	s.active = true
	s.frame = nil
	s.process = cmd.Process
	s.stdout = stdout
	s.stderr = &stderr
	s.waitErr = waitErr
	s.mu.Unlock()

	go s.readFrames(stdout)

	s.logDebug("capture started", "device", cfg.Device, "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	return nil
}

// readFrames splits the MJPEG byte stream and retains the latest complete frame.
func (s *Session) readFrames(stdout io.Reader) {
	splitter := &mjpegSplitter{}
	buf := make([]byte, 64*1024)

	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			frames := splitter.push(buf[:n])
			if len(frames) > 0 {
				latest := frames[len(frames)-1]
				s.mu.Lock()
				if s.active {
					s.frame = latest
				}
				s.mu.Unlock()
			}
		}
		if err != nil {
			return
		}
	}
}

// CaptureFrame returns a copy of the most recent complete JPEG frame.
func (s *Session) CaptureFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || len(s.frame) == 0 {
		return nil, ErrNoFrame
	}
	frame := make([]byte, len(s.frame))
	copy(frame, s.frame)
	return frame, nil
}

// Active reports whether the session currently holds the device.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stop releases the device and clears the retained frame. Safe to call when
// already stopped.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.frame = nil
	process := s.process
	stdout := s.stdout
	waitErr := s.waitErr
	s.process = nil
	s.stdout = nil
	s.waitErr = nil
	s.mu.Unlock()

	if process != nil {
		_ = process.Signal(os.Interrupt)
		select {
		case <-waitErr:
		case <-time.After(2 * time.Second):
			_ = process.Kill()
			<-waitErr
		}
	}
	if stdout != nil {
		_ = stdout.Close()
	}

	s.logDebug("capture stopped", "device", s.cfg.Device)
	return nil
}

func (s *Session) logDebug(message string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(message, args...)
}
