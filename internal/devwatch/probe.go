package devwatch

import (
	"golang.org/x/sys/unix"

	"facevault/internal/config"
)

// DeviceStatus is a one-shot snapshot of a capture device node.
type DeviceStatus struct {
	Path     string
	Present  bool
	Readable bool
}

var cameraCandidates = []string{"/dev/video0", "/dev/video1", "/dev/video2"}

// ProbeCameras checks the configured camera node, or the default video nodes
// when none is configured.
func ProbeCameras(cfg *config.Config) []DeviceStatus {
	candidates := cameraCandidates
	if cfg.Capture.CameraDevice != "" {
		candidates = []string{cfg.Capture.CameraDevice}
	}
	statuses := make([]DeviceStatus, 0, len(candidates))
	for _, path := range candidates {
		statuses = append(statuses, probeNode(path))
	}
	return statuses
}

func probeNode(path string) DeviceStatus {
	status := DeviceStatus{Path: path}
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return status
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFCHR {
		return status
	}
	status.Present = true
	status.Readable = unix.Access(path, unix.R_OK|unix.W_OK) == nil
	return status
}
