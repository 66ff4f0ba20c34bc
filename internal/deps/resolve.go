package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"keyframer/internal/config"
	"keyframer/internal/services"
)

// Binaries holds resolved executable paths.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// Resolve locates both binaries configured in cfg. Missing binaries are
// configuration errors; nothing is downloaded.
func Resolve(cfg *config.Config) (Binaries, error) {
	ffmpeg, err := ResolveBinary(cfg.Binaries.FFmpeg, cfg.Binaries.Dir)
	if err != nil {
		return Binaries{}, err
	}
	ffprobe, err := ResolveBinary(cfg.Binaries.FFprobe, cfg.Binaries.Dir)
	if err != nil {
		return Binaries{}, err
	}
	return Binaries{FFmpeg: ffmpeg, FFprobe: ffprobe}, nil
}

// ResolveBinary returns an executable path for command. A command containing
// a path separator must point at an executable file. A bare name is looked up
// in dir first and then on PATH.
func ResolveBinary(command, dir string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", services.Wrap(services.ErrConfiguration, "deps", "resolve binary", "command not configured", nil)
	}
	resolved, err := lookup(command, dir)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "deps", "resolve "+filepath.Base(command), "", err)
	}
	return resolved, nil
}

func lookup(command, dir string) (string, error) {
	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		info, err := os.Stat(command)
		if err != nil {
			return "", fmt.Errorf("binary %q not found", command)
		}
		if !isExecutable(info) {
			return "", fmt.Errorf("binary %q is not executable", command)
		}
		return command, nil
	}
	if dir = strings.TrimSpace(dir); dir != "" {
		candidate := filepath.Join(dir, executableName(command))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("binary %q not found", command)
	}
	return path, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
