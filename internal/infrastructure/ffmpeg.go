package infrastructure

import (
	"fmt"
	"os/exec"
)

// CheckFFmpeg verifies the ffmpeg binary is present and runnable. Merging
// and audio transcoding both depend on it, so a missing binary fails the
// request before any network work starts.
func CheckFFmpeg(binary string) error {
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}
	if err := exec.Command(path, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg found but not runnable: %w", err)
	}
	return nil
}
