package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/mward/glance/internal/answer"
	"github.com/mward/glance/internal/camera"
	"github.com/mward/glance/internal/cli"
	"github.com/mward/glance/internal/config"
	"github.com/mward/glance/internal/doctor"
	"github.com/mward/glance/internal/gemini"
	"github.com/mward/glance/internal/indicator"
	"github.com/mward/glance/internal/ipc"
	"github.com/mward/glance/internal/logging"
	"github.com/mward/glance/internal/output"
	"github.com/mward/glance/internal/scan"
	"github.com/mward/glance/internal/version"
)

const (
	forwardTimeout = 220 * time.Millisecond
	// ask blocks on a remote round trip plus its retry envelope.
	askForwardTimeout = 2 * time.Minute
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("glance"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("glance"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandScan, cli.CommandCancel, cli.CommandClear, cli.CommandClose:
		return r.forwardOrFail(ctx, string(parsed.Command), forwardTimeout)
	case cli.CommandTranscript:
		return r.commandTranscript(ctx)
	case cli.CommandAsk:
		return r.commandAsk(ctx)
	case cli.CommandOpen:
		return r.commandOpen(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := camera.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no camera devices found")
		return 1
	}

	for _, device := range devices {
		fmt.Fprintf(r.Stdout, "%s | %s\n", device.Node, device.Name)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "inactive")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status", forwardTimeout)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.ScanState == "" {
			resp.ScanState = "idle"
		}
		if resp.AnswerState == "" {
			resp.AnswerState = "idle"
		}
		fmt.Fprintf(r.Stdout, "scan: %s\n", resp.ScanState)
		fmt.Fprintf(r.Stdout, "answer: %s\n", resp.AnswerState)
		fmt.Fprintf(r.Stdout, "transcript: %d snippet(s)\n", len(resp.Transcript))
		return 0
	}

	fmt.Fprintln(r.Stdout, "inactive")
	return 0
}

func (r Runner) commandTranscript(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "transcript", forwardTimeout)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active glance session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if len(resp.Transcript) == 0 {
		fmt.Fprintln(r.Stdout, "transcript is empty")
		return 0
	}
	for _, snippet := range resp.Transcript {
		fmt.Fprintln(r.Stdout, snippet)
	}
	return 0
}

func (r Runner) commandAsk(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "ask", askForwardTimeout)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active glance session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if strings.TrimSpace(resp.Answer) != "" {
		fmt.Fprintln(r.Stdout, resp.Answer)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string, timeout time.Duration) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command, timeout)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active glance session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandOpen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:       os.Getenv(cfg.Gemini.APIKeyEnv),
		ExtractModel: cfg.Gemini.ExtractModel,
		AnswerModel:  cfg.Gemini.AnswerModel,
		Retry: gemini.RetryPolicy{
			MaxRetries:   cfg.Gemini.MaxRetries,
			InitialDelay: time.Duration(cfg.Gemini.InitialDelayMS) * time.Millisecond,
			Multiplier:   2,
		},
	}, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("configure gemini client failed", "error", err.Error())
		return 1
	}

	cam := camera.NewSession(camera.Config{
		FFmpegBinary: cfg.Camera.FFmpegBinary,
		Device:       cfg.Camera.Device,
		InputFormat:  cfg.Camera.InputFormat,
		Width:        cfg.Camera.Width,
		Height:       cfg.Camera.Height,
		Framerate:    cfg.Camera.Framerate,
	}, logger)
	if err := cam.Start(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("camera start failed", "error", err.Error())
		return 1
	}
	defer func() { _ = cam.Stop() }()

	indicatorCtl := indicator.New(cfg.Notify, logger)
	committer := output.NewCommitter(cfg, logger)

	scans := scan.NewCoordinator(logger, cam, client, scan.Options{
		Cooldown:  time.Duration(cfg.Scan.CooldownSeconds) * time.Second,
		Indicator: indicatorCtl,
	})
	answers := answer.NewCoordinator(logger, scans, client, answer.Options{
		Cooldown:  time.Duration(cfg.Answer.CooldownSeconds) * time.Second,
		Committer: committer,
		Indicator: indicatorCtl,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	handler := ownerHandler{scans: scans, answers: answers, shutdown: serverCancel}

	fmt.Fprintln(r.Stdout, "session open")
	logger.Info("session open", "socket", socketPath, "camera", cfg.Camera.Device)

	if err := ipc.Serve(serverCtx, listener, handler); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(r.Stdout, "session closed")
	logger.Info("session closed", "transcript_snippets", len(scans.Transcript()))
	return 0
}

func tryForward(ctx context.Context, socketPath string, command string, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
