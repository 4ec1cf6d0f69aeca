package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mward/glance/internal/fsm"
	"github.com/mward/glance/internal/gemini"
)

type fakeFrames struct {
	active bool
	frame  []byte
	err    error
}

func (f *fakeFrames) Active() bool { return f.active }

func (f *fakeFrames) CaptureFrame() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.frame, nil
}

// blockingExtractor holds each ExtractText call until release is closed,
// so tests can observe the busy state deterministically.
type blockingExtractor struct {
	release chan struct{}
	text    string
	err     error
	calls   atomic.Int32
}

func newBlockingExtractor(text string, err error) *blockingExtractor {
	return &blockingExtractor{release: make(chan struct{}), text: text, err: err}
}

func (e *blockingExtractor) ExtractText(context.Context, []byte) (string, error) {
	e.calls.Add(1)
	<-e.release
	return e.text, e.err
}

func liveFrames() *fakeFrames {
	return &fakeFrames{active: true, frame: []byte{0xff, 0xd8, 0xff, 0xd9}}
}

func waitForState(t *testing.T, c *Coordinator, want fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("coordinator never reached state %q (currently %q)", want, c.State())
}

func TestTriggerScanAppendsTrimmedSnippet(t *testing.T) {
	extractor := newBlockingExtractor("  hello world \n", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	require.Equal(t, fsm.StateBusy, c.State())

	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)

	require.Equal(t, []string{"hello world"}, c.Transcript())
	require.NoError(t, c.Err())
}

func TestTriggerScanRejectedWhileBusy(t *testing.T) {
	extractor := newBlockingExtractor("text", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	require.ErrorIs(t, c.TriggerScan(context.Background()), ErrScanInFlight)

	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)
	require.Equal(t, int32(1), extractor.calls.Load())
}

func TestTriggerScanRejectedDuringCooldown(t *testing.T) {
	extractor := newBlockingExtractor("text", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 80 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	close(extractor.release)
	waitForState(t, c, fsm.StateCooldown)

	require.ErrorIs(t, c.TriggerScan(context.Background()), ErrCoolingDown)

	waitForState(t, c, fsm.StateIdle)
	require.NoError(t, c.TriggerScan(context.Background()))
}

func TestTriggerScanRequiresActiveCamera(t *testing.T) {
	c := NewCoordinator(nil, &fakeFrames{active: false}, newBlockingExtractor("", nil), Options{})
	require.ErrorIs(t, c.TriggerScan(context.Background()), ErrCameraInactive)
	require.Equal(t, fsm.StateIdle, c.State())
}

func TestTriggerScanPropagatesCaptureError(t *testing.T) {
	captureErr := errors.New("no frame captured yet")
	c := NewCoordinator(nil, &fakeFrames{active: true, err: captureErr}, newBlockingExtractor("", nil), Options{})

	require.ErrorIs(t, c.TriggerScan(context.Background()), captureErr)
	require.Equal(t, fsm.StateIdle, c.State())
}

func TestSingleExtractionUnderConcurrentTriggers(t *testing.T) {
	extractor := newBlockingExtractor("text", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.TriggerScan(context.Background())
		}()
	}
	wg.Wait()

	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)
	require.Equal(t, int32(1), extractor.calls.Load())
	require.Equal(t, []string{"text"}, c.Transcript())
}

func TestBlankExtractionDiscardedSilently(t *testing.T) {
	extractor := newBlockingExtractor("   \n\t", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)

	require.Empty(t, c.Transcript())
	require.NoError(t, c.Err())
}

func TestCancelDiscardsResultAndSkipsCooldown(t *testing.T) {
	extractor := newBlockingExtractor("late text", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 40 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	require.True(t, c.CancelScan())
	require.Equal(t, fsm.StateIdle, c.State())

	close(extractor.release)
	time.Sleep(60 * time.Millisecond)

	require.Empty(t, c.Transcript())
	require.NoError(t, c.Err())
	require.Equal(t, fsm.StateIdle, c.State())
}

func TestCancelOnlyAppliesToInFlightScan(t *testing.T) {
	extractor := newBlockingExtractor("text", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 80 * time.Millisecond})

	require.False(t, c.CancelScan())

	require.NoError(t, c.TriggerScan(context.Background()))
	close(extractor.release)
	waitForState(t, c, fsm.StateCooldown)
	require.False(t, c.CancelScan())
}

func TestRateLimitedFailureHeldAsBusy(t *testing.T) {
	remoteErr := &gemini.Error{Kind: gemini.KindRateLimited, Op: "extract", Err: errors.New("429 resource exhausted")}
	extractor := newBlockingExtractor("", remoteErr)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)

	require.ErrorIs(t, c.Err(), ErrAPIBusy)
	require.Empty(t, c.Transcript())
}

func TestGenericFailureHeldAsExtractionFailed(t *testing.T) {
	extractor := newBlockingExtractor("", errors.New("model exploded"))
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)

	require.ErrorIs(t, c.Err(), ErrExtractionFailed)
}

func TestNewScanClearsHeldError(t *testing.T) {
	failing := newBlockingExtractor("", errors.New("boom"))
	c := NewCoordinator(nil, liveFrames(), failing, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	close(failing.release)
	waitForState(t, c, fsm.StateIdle)
	require.Error(t, c.Err())

	c.extract = newBlockingExtractor("recovered", nil)
	require.NoError(t, c.TriggerScan(context.Background()))
	require.NoError(t, c.Err())
	close(c.extract.(*blockingExtractor).release)
	waitForState(t, c, fsm.StateIdle)

	require.Equal(t, []string{"recovered"}, c.Transcript())
}

func TestClearTranscriptDoesNotDisturbInFlightScan(t *testing.T) {
	extractor := newBlockingExtractor("fresh", nil)
	c := NewCoordinator(nil, liveFrames(), extractor, Options{Cooldown: 10 * time.Millisecond})

	require.NoError(t, c.TriggerScan(context.Background()))
	c.ClearTranscript()
	require.Equal(t, fsm.StateBusy, c.State())

	close(extractor.release)
	waitForState(t, c, fsm.StateIdle)
	require.Equal(t, []string{"fresh"}, c.Transcript())
}

func TestQuestionJoinsSnippetsWithSpaces(t *testing.T) {
	c := NewCoordinator(nil, liveFrames(), PlaceholderExtractor{}, Options{})
	c.transcript = []string{"foo", "bar baz"}

	require.Equal(t, "foo bar baz", c.Question())

	c.ClearTranscript()
	require.Empty(t, c.Question())
	require.Empty(t, c.Transcript())
}
