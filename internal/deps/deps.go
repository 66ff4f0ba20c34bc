package deps

import (
	"strings"

	"keyframer/internal/config"
)

// Requirement defines an external dependency keyframer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries a run needs under cfg.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Binaries.FFmpeg, Description: "Extracts frames from the video"},
		{Name: "FFprobe", Command: cfg.Binaries.FFprobe, Description: "Reads picture types to find shot boundaries"},
	}
}

// CheckBinaries evaluates the provided requirements against the binaries
// directory and PATH, and reports availability. Available entries carry the
// resolved path in Command.
func CheckBinaries(requirements []Requirement, dir string) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := lookup(cmd, dir)
		if err != nil {
			status.Available = false
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}
