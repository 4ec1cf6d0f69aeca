// Package answer coordinates answering the accumulated transcript.
package answer

import (
	"context"
	"errors"
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

// Guard and failure errors surfaced to callers.
var (
	ErrEmptyTranscript = errors.New("nothing scanned yet; scan some text first")
	ErrAnswerInFlight  = errors.New("an answer request is already in progress")
	ErrCoolingDown     = errors.New("answer cooldown active; wait a moment")

	ErrAPIBusy      = errors.New("answer service is busy; wait and retry")
	ErrAnswerFailed = errors.New("answer request failed; try again")

	ErrAnswererUnavailable = errors.New("no answerer configured")
)

// Source provides the question text assembled from the transcript.
type Source interface {
	Question() string
}

// Answerer produces an answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// PlaceholderAnswerer stands in when no answerer is wired up.
type PlaceholderAnswerer struct{}

func (PlaceholderAnswerer) Answer(context.Context, string) (string, error) {
	return "", ErrAnswererUnavailable
}

// Committer delivers the answer text somewhere useful, like the clipboard.
type Committer interface {
	Commit(ctx context.Context, answer string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(ctx context.Context, answer string) error

func (f CommitFunc) Commit(ctx context.Context, answer string) error {
	return f(ctx, answer)
}

// Indicator receives answer progress for on-screen feedback.
type Indicator interface {
	ShowAnswering(ctx context.Context)
	ShowResult(ctx context.Context, text string)
	ShowError(ctx context.Context, message string)
}

type noopIndicator struct{}

func (noopIndicator) ShowAnswering(context.Context)      {}
func (noopIndicator) ShowResult(context.Context, string) {}
func (noopIndicator) ShowError(context.Context, string)  {}

// Result is the outcome of the most recent answer request.
type Result struct {
	Text string
	Err  error
}

// Options tune coordinator behavior beyond its collaborators.
type Options struct {
	Cooldown  time.Duration
	Committer Committer
	Indicator Indicator
}

// Coordinator runs one answer request at a time against the transcript
// source. Its lifecycle is independent of the scan coordinator: a scan in
// flight or cooling down never blocks an answer request, and vice versa.
type Coordinator struct {
	logger    *slog.Logger
	source    Source
	answerer  Answerer
	committer Committer
	indicator Indicator
	cooldown  time.Duration

	mu     sync.Mutex
	state  fsm.State
	result Result
}

// NewCoordinator constructs an answer coordinator with safe default fallbacks.
func NewCoordinator(logger *slog.Logger, source Source, answerer Answerer, opts Options) *Coordinator {
	if answerer == nil {
		answerer = PlaceholderAnswerer{}
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
		source:    source,
		answerer:  answerer,
		committer: opts.Committer,
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

// Result returns the outcome of the most recent completed request. Starting a
// new request clears it.
func (c *Coordinator) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// RequestAnswer submits the current transcript and starts one answer request.
// Calls made while a request is in flight or a cooldown is active are
// rejected, not queued. An empty transcript is rejected before any remote
// work happens.
func (c *Coordinator) RequestAnswer(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case fsm.StateBusy:
		c.mu.Unlock()
		return ErrAnswerInFlight
	case fsm.StateCooldown:
		c.mu.Unlock()
		return ErrCoolingDown
	}

	question := ""
	if c.source != nil {
		question = strings.TrimSpace(c.source.Question())
	}
	if question == "" {
		c.mu.Unlock()
		return ErrEmptyTranscript
	}

	next, err := fsm.Transition(c.state, fsm.EventTrigger)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.result = Result{}
	requestID := uuid.NewString()
	c.mu.Unlock()

	c.indicator.ShowAnswering(ctx)
	c.logInfo("answer request started", "request_id", requestID, "question_chars", len(question))

	go c.runRequest(ctx, requestID, question)
	return nil
}

func (c *Coordinator) runRequest(ctx context.Context, requestID string, question string) {
	text, err := c.answerer.Answer(ctx, question)

	c.mu.Lock()
	if err != nil {
		c.result = Result{Err: classifyAnswerErr(err)}
	} else {
		c.result = Result{Text: text}
	}
	if next, terr := fsm.Transition(c.state, fsm.EventFinish); terr == nil {
		c.state = next
	}
	outcome := c.result
	c.mu.Unlock()

	if outcome.Err != nil {
		c.indicator.ShowError(ctx, outcome.Err.Error())
		c.logError("answer request failed", requestID, err)
	} else {
		c.indicator.ShowResult(ctx, outcome.Text)
		c.logInfo("answer received", "request_id", requestID, "chars", len(outcome.Text))
		c.commit(ctx, requestID, outcome.Text)
	}

	c.startCooldown()
}

func (c *Coordinator) commit(ctx context.Context, requestID string, text string) {
	if c.committer == nil {
		return
	}
	if err := c.committer.Commit(ctx, text); err != nil {
		// The answer itself succeeded; a delivery failure is only logged.
		if c.logger != nil {
			c.logger.Warn("answer commit failed", "request_id", requestID, "error", err.Error())
		}
	}
}

func (c *Coordinator) startCooldown() {
	time.AfterFunc(c.cooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if next, err := fsm.Transition(c.state, fsm.EventCooled); err == nil {
			c.state = next
		}
	})
}

func classifyAnswerErr(err error) error {
	if gemini.IsRateLimited(err) {
		return fmt.Errorf("%w: %w", ErrAPIBusy, err)
	}
	return fmt.Errorf("%w: %w", ErrAnswerFailed, err)
}

func (c *Coordinator) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Coordinator) logError(message string, requestID string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(message, "request_id", requestID, "error", err.Error())
}
