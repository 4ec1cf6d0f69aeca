// Package doctor runs runtime readiness diagnostics for config, tools, camera, and credentials.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mward/glance/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkBinary(cfg.Config.Camera.FFmpegBinary, "frame capture available"))
	checks = append(checks, checkCameraDevice(cfg.Config.Camera.Device))
	checks = append(checks, checkAPIKey(cfg.Config.Gemini.APIKeyEnv))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))

	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications available"))
	}

	return Report{Checks: checks}
}

// checkCameraDevice validates that the configured capture node exists.
func checkCameraDevice(device string) Check {
	if strings.TrimSpace(device) == "" {
		return Check{Name: "camera.device", Pass: false, Message: "camera device is empty"}
	}
	info, err := os.Stat(device)
	if err != nil {
		return Check{Name: "camera.device", Pass: false, Message: fmt.Sprintf("cannot stat %s: %v", device, err)}
	}
	if info.IsDir() {
		return Check{Name: "camera.device", Pass: false, Message: fmt.Sprintf("%s is a directory, not a device node", device)}
	}
	return Check{Name: "camera.device", Pass: true, Message: fmt.Sprintf("found %s", device)}
}

// checkAPIKey validates that the configured credential variable is set and non-empty.
func checkAPIKey(envName string) Check {
	if strings.TrimSpace(envName) == "" {
		return Check{Name: "gemini.api_key", Pass: false, Message: "api_key_env is empty"}
	}
	if strings.TrimSpace(os.Getenv(envName)) == "" {
		return Check{Name: "gemini.api_key", Pass: false, Message: fmt.Sprintf("$%s is not set", envName)}
	}
	return Check{Name: "gemini.api_key", Pass: true, Message: fmt.Sprintf("$%s is set", envName)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
