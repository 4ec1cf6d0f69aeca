// Package indicator surfaces scan and answer progress as desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mward/glance/internal/config"
)

// summaryLimit keeps notification bodies readable.
const summaryLimit = 120

// Controller is the coordinator-facing indicator contract.
type Controller interface {
	ShowScanning(context.Context)
	ShowAnswering(context.Context)
	ShowResult(context.Context, string)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// Noop satisfies Controller without side effects.
type Noop struct{}

func (Noop) ShowScanning(context.Context)       {}
func (Noop) ShowAnswering(context.Context)      {}
func (Noop) ShowResult(context.Context, string) {}
func (Noop) ShowError(context.Context, string)  {}
func (Noop) Hide(context.Context)               {}

// DesktopNotify routes indicator states to freedesktop notifications.
type DesktopNotify struct {
	cfg    config.NotifyConfig
	logger *slog.Logger

	mu             sync.Mutex
	notificationID uint32
}

// New builds a Controller from config; a disabled config yields a Noop.
func New(cfg config.NotifyConfig, logger *slog.Logger) Controller {
	if !cfg.Enable {
		return Noop{}
	}
	return &DesktopNotify{cfg: cfg, logger: logger}
}

// ShowScanning signals an in-flight extraction.
func (d *DesktopNotify) ShowScanning(ctx context.Context) {
	d.replace(ctx, "Scanning…", 300000)
}

// ShowAnswering signals an in-flight answer request.
func (d *DesktopNotify) ShowAnswering(ctx context.Context) {
	d.replace(ctx, "Thinking…", 300000)
}

// ShowResult displays a truncated summary of new text or a fresh answer.
func (d *DesktopNotify) ShowResult(ctx context.Context, text string) {
	d.replace(ctx, summarize(text), 4000)
}

// ShowError displays a transient error message.
func (d *DesktopNotify) ShowError(ctx context.Context, text string) {
	timeout := d.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1600
	}
	d.replace(ctx, summarize(text), timeout)
}

// Hide dismisses the active notification.
func (d *DesktopNotify) Hide(ctx context.Context) {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return
	}
	if err := desktopDismiss(ctx, id); err != nil {
		d.logWarn("dismiss notification failed", err)
	}
}

// replace posts a notification reusing the previous ID so states swap in place.
func (d *DesktopNotify) replace(ctx context.Context, summary string, timeoutMS int) {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	id, err := desktopNotify(ctx, d.cfg.AppName, replaceID, summary, timeoutMS)
	if err != nil {
		d.logWarn("desktop notification failed", err)
		return
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
}

func (d *DesktopNotify) logWarn(message string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Warn(message, "error", err.Error())
}

// summarize collapses whitespace and truncates long payloads for display.
func summarize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return "(empty)"
	}
	if len(collapsed) <= summaryLimit {
		return collapsed
	}
	return collapsed[:summaryLimit-1] + "…"
}
