// Package config resolves, parses, validates, and defaults glance configuration.
package config

// Config is the fully materialized runtime configuration used by glance.
type Config struct {
	Gemini    GeminiConfig
	Camera    CameraConfig
	Scan      ScanConfig
	Answer    AnswerConfig
	Clipboard CommandConfig
	Notify    NotifyConfig
	Output    OutputConfig
}

// GeminiConfig controls the remote model client and its retry envelope.
type GeminiConfig struct {
	APIKeyEnv      string
	ExtractModel   string
	AnswerModel    string
	MaxRetries     int
	InitialDelayMS int
}

// CameraConfig selects the capture device and frame geometry.
type CameraConfig struct {
	Device       string
	InputFormat  string
	Width        int
	Height       int
	Framerate    int
	FFmpegBinary string
}

// ScanConfig controls scan coordinator behavior.
type ScanConfig struct {
	CooldownSeconds int
}

// AnswerConfig controls answer coordinator behavior.
type AnswerConfig struct {
	CooldownSeconds int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// NotifyConfig controls desktop notification behavior.
type NotifyConfig struct {
	Enable         bool
	AppName        string
	ErrorTimeoutMS int
}

// OutputConfig controls how answers are committed to the clipboard.
type OutputConfig struct {
	CopyStripped bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
