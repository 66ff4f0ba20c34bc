package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"keyframer/internal/deps"
	"keyframer/internal/preflight"
)

// checkState is the outcome shown for one line of `keyframer deps`.
type checkState int

const (
	stateFound checkState = iota
	stateMissing
	stateSkipped
	stateReady
	stateBlocked
	stateNote
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

const (
	checkLabelWidth = 18
	checkStateWidth = 7
	checkIndent     = "  "
)

func binaryState(status deps.Status) checkState {
	switch {
	case status.Available:
		return stateFound
	case status.Optional:
		return stateSkipped
	default:
		return stateMissing
	}
}

func binaryDetail(status deps.Status) string {
	if status.Available {
		return status.Command
	}
	return status.Detail
}

func directoryState(result preflight.Result) checkState {
	if result.Passed {
		return stateReady
	}
	return stateBlocked
}

// renderCheckLine formats "  <label> ..... <state>  <detail>". Only the state
// word is coloured.
func renderCheckLine(label string, state checkState, detail string, colorize bool) string {
	leader := checkLabelWidth - len(label)
	if leader < 2 {
		leader = 2
	}
	word := fmt.Sprintf("%-*s", checkStateWidth, checkStateWord(state))
	if colorize {
		if color := checkStateColor(state); color != "" {
			word = color + word + ansiReset
		}
	}
	line := checkIndent + label + " " + strings.Repeat(".", leader) + " " + word
	if detail != "" {
		line += " " + detail
	}
	return strings.TrimRight(line, " ")
}

func checkStateWord(state checkState) string {
	switch state {
	case stateFound:
		return "found"
	case stateMissing:
		return "missing"
	case stateSkipped:
		return "skipped"
	case stateReady:
		return "ready"
	case stateBlocked:
		return "blocked"
	default:
		return "note"
	}
}

func checkStateColor(state checkState) string {
	switch state {
	case stateFound, stateReady:
		return ansiGreen
	case stateSkipped:
		return ansiYellow
	case stateMissing, stateBlocked:
		return ansiRed
	case stateNote:
		return ansiCyan
	default:
		return ""
	}
}

func renderSection(w io.Writer, title string, colorize bool) {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", len(title))
	if colorize {
		title = ansiBold + title + ansiReset
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)
}

// shouldColorize reports whether writer is a terminal and NO_COLOR is unset.
func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
