package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mward/glance/internal/answer"
	"github.com/mward/glance/internal/fsm"
	"github.com/mward/glance/internal/ipc"
	"github.com/mward/glance/internal/scan"
)

const (
	answerPollInterval = 25 * time.Millisecond
	answerWaitTimeout  = 90 * time.Second
)

// ownerHandler maps IPC commands onto the session's coordinators.
type ownerHandler struct {
	scans    *scan.Coordinator
	answers  *answer.Coordinator
	shutdown context.CancelFunc
}

func (h ownerHandler) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{
			OK:          true,
			ScanState:   string(h.scans.State()),
			AnswerState: string(h.answers.State()),
			Transcript:  h.scans.Transcript(),
		}
	case "scan":
		if err := h.scans.TriggerScan(ctx); err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		return ipc.Response{OK: true, Message: "scan started"}
	case "cancel":
		if h.scans.CancelScan() {
			return ipc.Response{OK: true, Message: "scan cancelled"}
		}
		return ipc.Response{OK: true, Message: "no scan in flight"}
	case "clear":
		h.scans.ClearTranscript()
		return ipc.Response{OK: true, Message: "transcript cleared"}
	case "transcript":
		return ipc.Response{OK: true, Transcript: h.scans.Transcript()}
	case "ask":
		return h.handleAsk(ctx)
	case "close":
		h.shutdown()
		return ipc.Response{OK: true, Message: "closing session"}
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unsupported command %q", req.Command)}
	}
}

// handleAsk starts one answer request and blocks the connection until the
// result lands, so the forwarding client can print it.
func (h ownerHandler) handleAsk(ctx context.Context) ipc.Response {
	if err := h.answers.RequestAnswer(ctx); err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}

	deadline := time.Now().Add(answerWaitTimeout)
	for {
		select {
		case <-ctx.Done():
			return ipc.Response{OK: false, Error: "session shutting down"}
		case <-time.After(answerPollInterval):
		}

		if h.answers.State() != fsm.StateBusy {
			result := h.answers.Result()
			if result.Err != nil {
				return ipc.Response{OK: false, Error: result.Err.Error()}
			}
			return ipc.Response{OK: true, Answer: result.Text}
		}

		if time.Now().After(deadline) {
			return ipc.Response{OK: false, Error: "timed out waiting for answer"}
		}
	}
}
