package preflight

import (
	"fmt"
	"path/filepath"
	"strings"

	"keyframer/internal/config"
	"keyframer/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Targets are the directories a run is about to fill.
type Targets struct {
	FramesDir string
	OutputDir string
	// EstimatedBytes is the expected size of the extracted frames. Zero
	// leaves only the configured minimum.
	EstimatedBytes uint64
}

// RunAll checks that the parents of the frames and output directories are
// writable and that the frames filesystem has room for the extraction.
func RunAll(cfg *config.Config, targets Targets) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	framesParent := existingAncestor(targets.FramesDir)
	results = append(results, CheckDirectoryAccess("Frames location", framesParent))

	if targets.OutputDir != "" {
		outputParent := existingAncestor(targets.OutputDir)
		if outputParent != framesParent {
			results = append(results, CheckDirectoryAccess("Output location", outputParent))
		}
	}

	required := uint64(max(cfg.Extraction.MinFreeGiB, 0)) * gib
	required = max(required, targets.EstimatedBytes)
	if required > 0 {
		results = append(results, CheckFreeSpace("Free space", framesParent, required))
	}
	return results
}

// Failed converts failing results into a single error, or nil when all passed.
func Failed(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check paths", strings.Join(failures, "; "), nil)
}

// existingAncestor returns path or its nearest existing parent.
func existingAncestor(path string) string {
	path = filepath.Clean(path)
	for {
		if ok, _ := exists(path); ok {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
