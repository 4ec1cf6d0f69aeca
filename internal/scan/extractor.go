package scan

import (
	"context"
	"errors"
)

// Guard and failure errors surfaced to callers.
var (
	ErrCameraInactive = errors.New("camera is not active; open a session first")
	ErrScanInFlight   = errors.New("a scan is already in progress")
	ErrCoolingDown    = errors.New("scan cooldown active; wait a moment")

	ErrAPIBusy          = errors.New("extraction service is busy; wait and retry")
	ErrExtractionFailed = errors.New("text extraction failed; try again")

	ErrExtractorUnavailable = errors.New("no text extractor configured")
)

// FrameSource supplies the most recent camera frame on demand.
type FrameSource interface {
	Active() bool
	CaptureFrame() ([]byte, error)
}

// TextExtractor turns a still image into the text it contains.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// PlaceholderExtractor stands in when no extractor is wired up.
type PlaceholderExtractor struct{}

func (PlaceholderExtractor) ExtractText(context.Context, []byte) (string, error) {
	return "", ErrExtractorUnavailable
}

// Indicator receives scan progress for on-screen feedback.
type Indicator interface {
	ShowScanning(ctx context.Context)
	ShowResult(ctx context.Context, text string)
	ShowError(ctx context.Context, message string)
	Hide(ctx context.Context)
}

type noopIndicator struct{}

func (noopIndicator) ShowScanning(context.Context)       {}
func (noopIndicator) ShowResult(context.Context, string) {}
func (noopIndicator) ShowError(context.Context, string)  {}
func (noopIndicator) Hide(context.Context)               {}
