package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yaml overlay structs: pointer fields so absent keys keep defaults.

type yamlConfig struct {
	Gemini       *yamlGemini `yaml:"gemini"`
	Camera       *yamlCamera `yaml:"camera"`
	Scan         *yamlScan   `yaml:"scan"`
	Answer       *yamlAnswer `yaml:"answer"`
	ClipboardCmd *string     `yaml:"clipboard_cmd"`
	Notify       *yamlNotify `yaml:"notify"`
	Output       *yamlOutput `yaml:"output"`
}

type yamlGemini struct {
	APIKeyEnv      *string `yaml:"api_key_env"`
	ExtractModel   *string `yaml:"extract_model"`
	AnswerModel    *string `yaml:"answer_model"`
	MaxRetries     *int    `yaml:"max_retries"`
	InitialDelayMS *int    `yaml:"initial_delay_ms"`
}

type yamlCamera struct {
	Device       *string `yaml:"device"`
	InputFormat  *string `yaml:"input_format"`
	Width        *int    `yaml:"width"`
	Height       *int    `yaml:"height"`
	Framerate    *int    `yaml:"framerate"`
	FFmpegBinary *string `yaml:"ffmpeg_binary"`
}

type yamlScan struct {
	CooldownSeconds *int `yaml:"cooldown_seconds"`
}

type yamlAnswer struct {
	CooldownSeconds *int `yaml:"cooldown_seconds"`
}

type yamlNotify struct {
	Enable         *bool   `yaml:"enable"`
	AppName        *string `yaml:"app_name"`
	ErrorTimeoutMS *int    `yaml:"error_timeout_ms"`
}

type yamlOutput struct {
	CopyStripped *bool `yaml:"copy_stripped"`
}

// Parse overlays YAML content onto base and validates the result.
func Parse(content []byte, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(string(content)) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	var payload yamlConfig
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, nil, fmt.Errorf("decode yaml: %w", err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// applyTo copies every present overlay value onto cfg.
func (payload yamlConfig) applyTo(cfg *Config) error {
	if g := payload.Gemini; g != nil {
		setString(&cfg.Gemini.APIKeyEnv, g.APIKeyEnv)
		setString(&cfg.Gemini.ExtractModel, g.ExtractModel)
		setString(&cfg.Gemini.AnswerModel, g.AnswerModel)
		setInt(&cfg.Gemini.MaxRetries, g.MaxRetries)
		setInt(&cfg.Gemini.InitialDelayMS, g.InitialDelayMS)
	}
	if c := payload.Camera; c != nil {
		setString(&cfg.Camera.Device, c.Device)
		setString(&cfg.Camera.InputFormat, c.InputFormat)
		setInt(&cfg.Camera.Width, c.Width)
		setInt(&cfg.Camera.Height, c.Height)
		setInt(&cfg.Camera.Framerate, c.Framerate)
		setString(&cfg.Camera.FFmpegBinary, c.FFmpegBinary)
	}
	if s := payload.Scan; s != nil {
		setInt(&cfg.Scan.CooldownSeconds, s.CooldownSeconds)
	}
	if a := payload.Answer; a != nil {
		setInt(&cfg.Answer.CooldownSeconds, a.CooldownSeconds)
	}
	if payload.ClipboardCmd != nil {
		argv, err := parseArgv(*payload.ClipboardCmd)
		if err != nil {
			return fmt.Errorf("clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: *payload.ClipboardCmd, Argv: argv}
	}
	if n := payload.Notify; n != nil {
		setBool(&cfg.Notify.Enable, n.Enable)
		setString(&cfg.Notify.AppName, n.AppName)
		setInt(&cfg.Notify.ErrorTimeoutMS, n.ErrorTimeoutMS)
	}
	if o := payload.Output; o != nil {
		setBool(&cfg.Output.CopyStripped, o.CopyStripped)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
