// Package gemini wraps the hosted generative model behind two operations:
// text extraction from a still image and answer generation from accumulated text.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const jpegMIMEType = "image/jpeg"

const extractInstruction = "Extract all visible text from this image. " +
	"Preserve line breaks between separate lines of text. " +
	"Respond with only the extracted text and nothing else. " +
	"If the image contains no readable text, respond with an empty message."

const answerTemplate = "Answer the following question as concisely as possible. " +
	"If the question asks for code, respond with a single fenced code block and nothing else. " +
	"Otherwise respond in short prose and mark the key part of the answer with **bold**.\n\n" +
	"Question: %s"

// Config carries credentials, model selection, and the retry envelope.
type Config struct {
	APIKey       string
	ExtractModel string
	AnswerModel  string
	Retry        RetryPolicy
}

// generateFunc performs one model invocation. Swappable in tests.
type generateFunc func(ctx context.Context, model string, parts []*genai.Part) (string, error)

// Client performs extraction and answer calls through a shared retry envelope.
// It holds no mutable state beyond the configured credential.
type Client struct {
	logger   *slog.Logger
	cfg      Config
	generate generateFunc
}

// New constructs a configured client. An empty API key is a fatal,
// non-retryable credential error.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Kind: KindInvalidCredential, Op: "configure", Err: ErrMissingAPIKey}
	}
	if strings.TrimSpace(cfg.ExtractModel) == "" || strings.TrimSpace(cfg.AnswerModel) == "" {
		return nil, fmt.Errorf("gemini model names must not be empty")
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, classify("configure", err)
	}

	c := &Client{logger: logger, cfg: cfg}
	c.generate = func(ctx context.Context, model string, parts []*genai.Part) (string, error) {
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
		resp, genErr := sdk.Models.GenerateContent(ctx, model, contents, nil)
		if genErr != nil {
			return "", genErr
		}
		return resp.Text(), nil
	}
	return c, nil
}

// ExtractText sends one encoded frame and returns the recognized text.
// The result may be empty; empty is not an error.
func (c *Client) ExtractText(ctx context.Context, image []byte) (string, error) {
	if c == nil || c.generate == nil {
		return "", &Error{Kind: KindInvalidCredential, Op: "extract", Err: ErrNotConfigured}
	}
	if len(image) == 0 {
		return "", fmt.Errorf("extract: image is empty")
	}

	parts := []*genai.Part{
		genai.NewPartFromText(extractInstruction),
		genai.NewPartFromBytes(image, jpegMIMEType),
	}
	text, err := withRetry(ctx, c.cfg.Retry, "extract", func(ctx context.Context) (string, error) {
		return c.generate(ctx, c.cfg.ExtractModel, parts)
	})
	if err != nil {
		return "", err
	}

	c.logDebug("extraction complete", "bytes", len(image), "chars", len(text))
	return text, nil
}

// Answer submits the accumulated question text and returns the raw model
// response, markdown and code fences intact.
func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	if c == nil || c.generate == nil {
		return "", &Error{Kind: KindInvalidCredential, Op: "answer", Err: ErrNotConfigured}
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("answer: question is empty")
	}

	parts := []*genai.Part{genai.NewPartFromText(fmt.Sprintf(answerTemplate, question))}
	text, err := withRetry(ctx, c.cfg.Retry, "answer", func(ctx context.Context) (string, error) {
		return c.generate(ctx, c.cfg.AnswerModel, parts)
	})
	if err != nil {
		return "", err
	}

	c.logDebug("answer complete", "question_chars", len(question), "answer_chars", len(text))
	return text, nil
}

func (c *Client) logDebug(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
