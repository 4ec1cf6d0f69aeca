// Package scan coordinates frame capture, text extraction, and the transcript.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mward/glance/internal/fsm"
	"github.com/mward/glance/internal/gemini"
)

const defaultCooldown = 5 * time.Second

// Options tune coordinator behavior beyond its collaborators.
type Options struct {
	Cooldown  time.Duration
	Indicator Indicator
}

// Coordinator drives the scan lifecycle: one extraction in flight at most,
// a cooldown window after every non-cancelled completion, and exclusive
// ownership of the transcript.
type Coordinator struct {
	logger    *slog.Logger
	frames    FrameSource
	extract   TextExtractor
	indicator Indicator
	cooldown  time.Duration

	mu         sync.Mutex
	state      fsm.State
	generation uint64
	transcript []string
	lastErr    error
}

// NewCoordinator constructs a scan coordinator with safe default fallbacks.
func NewCoordinator(logger *slog.Logger, frames FrameSource, extract TextExtractor, opts Options) *Coordinator {
	if extract == nil {
		extract = PlaceholderExtractor{}
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	return &Coordinator{
		logger:    logger,
		frames:    frames,
		extract:   extract,
		indicator: indicator,
		cooldown:  cooldown,
		state:     fsm.StateIdle,
	}
}

// State returns the current lifecycle state snapshot.
func (c *Coordinator) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the accumulated snippets in scan order.
func (c *Coordinator) Transcript() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	snippets := make([]string, len(c.transcript))
	copy(snippets, c.transcript)
	return snippets
}

// Question joins the transcript into the single string submitted for answers.
func (c *Coordinator) Question() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.transcript, " ")
}

// Err returns the held user-facing error from the last failed scan, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// TriggerScan samples a frame and starts one extraction. Calls made while a
// scan is in flight or a cooldown is active are rejected, not queued.
func (c *Coordinator) TriggerScan(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case fsm.StateBusy:
		c.mu.Unlock()
		return ErrScanInFlight
	case fsm.StateCooldown:
		c.mu.Unlock()
		return ErrCoolingDown
	}
	if c.frames == nil || !c.frames.Active() {
		c.mu.Unlock()
		return ErrCameraInactive
	}

	frame, err := c.frames.CaptureFrame()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	next, err := fsm.Transition(c.state, fsm.EventTrigger)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.lastErr = nil
	gen := c.generation
	scanID := uuid.NewString()
	c.mu.Unlock()

	c.indicator.ShowScanning(ctx)
	c.logInfo("scan started", "scan_id", scanID, "frame_bytes", len(frame))

	go c.runScan(ctx, scanID, gen, frame)
	return nil
}

// runScan completes one extraction attempt. A generation mismatch after the
// remote call means the scan was cancelled: the result is dropped whole, with
// no transcript mutation and no cooldown.
func (c *Coordinator) runScan(ctx context.Context, scanID string, gen uint64, frame []byte) {
	text, err := c.extract.ExtractText(ctx, frame)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logInfo("scan result discarded after cancel", "scan_id", scanID)
		return
	}

	snippet := strings.TrimSpace(text)
	switch {
	case err != nil:
		c.lastErr = classifyExtractionErr(err)
	case snippet != "":
		c.transcript = append(c.transcript, snippet)
	}
	if next, terr := fsm.Transition(c.state, fsm.EventFinish); terr == nil {
		c.state = next
	}
	heldErr := c.lastErr
	c.mu.Unlock()

	switch {
	case err != nil:
		c.indicator.ShowError(ctx, heldErr.Error())
		c.logError("scan failed", scanID, err)
	case snippet == "":
		// Blank extractions are dropped without surfacing anything.
		c.indicator.Hide(ctx)
		c.logInfo("scan produced no text", "scan_id", scanID)
	default:
		c.indicator.ShowResult(ctx, snippet)
		c.logInfo("scan complete", "scan_id", scanID, "chars", len(snippet))
	}

	c.startCooldown()
}

// startCooldown arms the post-scan lockout window.
func (c *Coordinator) startCooldown() {
	time.AfterFunc(c.cooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if next, err := fsm.Transition(c.state, fsm.EventCooled); err == nil {
			c.state = next
		}
	})
}

// CancelScan abandons the in-flight scan. The remote call is not aborted; its
// eventual result is discarded at the generation check. Reports whether a scan
// was actually cancelled.
func (c *Coordinator) CancelScan() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != fsm.StateBusy {
		return false
	}
	next, err := fsm.Transition(c.state, fsm.EventCancel)
	if err != nil {
		return false
	}
	c.generation++
	c.state = next
	return true
}

// ClearTranscript empties the transcript and held error. Callable from any
// state; in-flight and cooldown progress are untouched.
func (c *Coordinator) ClearTranscript() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = nil
	c.lastErr = nil
}

// classifyExtractionErr converts remote failures into held user-facing errors.
func classifyExtractionErr(err error) error {
	if gemini.IsRateLimited(err) {
		return fmt.Errorf("%w: %w", ErrAPIBusy, err)
	}
	return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
}

func (c *Coordinator) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Coordinator) logError(message string, scanID string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(message, "scan_id", scanID, "error", err.Error())
}
