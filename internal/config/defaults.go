package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Gemini: GeminiConfig{
			APIKeyEnv:      "GEMINI_API_KEY",
			ExtractModel:   "gemini-2.5-flash",
			AnswerModel:    "gemini-2.5-flash",
			MaxRetries:     2,
			InitialDelayMS: 2000,
		},
		Camera: CameraConfig{
			Device:       "/dev/video0",
			InputFormat:  "v4l2",
			Width:        1920,
			Height:       1080,
			Framerate:    30,
			FFmpegBinary: "ffmpeg",
		},
		Scan:      ScanConfig{CooldownSeconds: 5},
		Answer:    AnswerConfig{CooldownSeconds: 5},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Notify: NotifyConfig{
			Enable:         true,
			AppName:        "glance",
			ErrorTimeoutMS: 1600,
		},
		Output: OutputConfig{CopyStripped: false},
	}
}
