package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Gemini.APIKeyEnv) == "" {
		return nil, fmt.Errorf("gemini.api_key_env must not be empty")
	}
	if strings.TrimSpace(cfg.Gemini.ExtractModel) == "" {
		return nil, fmt.Errorf("gemini.extract_model must not be empty")
	}
	if strings.TrimSpace(cfg.Gemini.AnswerModel) == "" {
		return nil, fmt.Errorf("gemini.answer_model must not be empty")
	}
	if cfg.Gemini.MaxRetries < 0 {
		return nil, fmt.Errorf("gemini.max_retries must be >= 0")
	}
	if cfg.Gemini.InitialDelayMS <= 0 {
		return nil, fmt.Errorf("gemini.initial_delay_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Camera.Device) == "" {
		return nil, fmt.Errorf("camera.device must not be empty")
	}
	if strings.TrimSpace(cfg.Camera.InputFormat) == "" {
		return nil, fmt.Errorf("camera.input_format must not be empty")
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return nil, fmt.Errorf("camera.width and camera.height must be > 0")
	}
	if cfg.Camera.Framerate <= 0 {
		return nil, fmt.Errorf("camera.framerate must be > 0")
	}
	if strings.TrimSpace(cfg.Camera.FFmpegBinary) == "" {
		return nil, fmt.Errorf("camera.ffmpeg_binary must not be empty")
	}
	if cfg.Scan.CooldownSeconds <= 0 {
		return nil, fmt.Errorf("scan.cooldown_seconds must be > 0")
	}
	if cfg.Answer.CooldownSeconds <= 0 {
		return nil, fmt.Errorf("answer.cooldown_seconds must be > 0")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("notify.error_timeout_ms must be >= 0")
	}

	if cfg.Gemini.MaxRetries > 5 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("gemini.max_retries=%d is high; rate-limited scans will block for a long time", cfg.Gemini.MaxRetries),
		})
	}

	return warnings, nil
}
