// Package opener reveals a directory in the OS file browser. The capability
// is an interface so the pipeline can be tested without touching the OS.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"
)

// FolderOpener opens a file-browser window on a directory.
type FolderOpener interface {
	Open(path string) error
}

// System is the real implementation, shelling out to the platform's opener.
type System struct{}

func (System) Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open folder %s: %w", path, err)
	}
	// Release the child; some openers block for the window's lifetime.
	go func() { _ = cmd.Wait() }()
	return nil
}
