package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const sysVideoDir = "/sys/class/video4linux"

// Device describes one V4L2 capture node surfaced to glance.
type Device struct {
	Node string
	Name string
}

// ListDevices enumerates V4L2 capture nodes with their card names.
func ListDevices(_ context.Context) ([]Device, error) {
	return listDevicesIn(sysVideoDir)
}

func listDevicesIn(sysDir string) ([]Device, error) {
	entries, err := os.ReadDir(sysDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list video devices: %w", err)
	}

	devices := make([]Device, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "video") {
			continue
		}

		name := ""
		if raw, readErr := os.ReadFile(filepath.Join(sysDir, entry.Name(), "name")); readErr == nil {
			name = strings.TrimSpace(string(raw))
		}
		devices = append(devices, Device{
			Node: filepath.Join("/dev", entry.Name()),
			Name: name,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Node < devices[j].Node })
	return devices, nil
}
