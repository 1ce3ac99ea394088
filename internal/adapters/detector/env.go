// Package detector provides environment detection for output mode selection.
package detector

import (
	"os"
	"slices"
	"strings"

	"go.trai.ch/bild/internal/core/domain"
	"golang.org/x/term"
)

// ModeFlags lists the accepted --output values.
var ModeFlags = []string{"auto", "linear", "ci", "quiet"}

// OutputMode represents the rendering mode for task progress.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeLinear prints task progress and prefixed command output.
	ModeLinear
	// ModeQuiet prints nothing but the final result; command output is
	// still captured into the build log on failure.
	ModeQuiet
)

// String returns the flag spelling of m.
func (m OutputMode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeQuiet:
		return "quiet"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode based on whether
// stderr is a terminal and whether a CI environment variable is set.
func DetectEnvironment() OutputMode {
	return Detect(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv("CI")) //nolint:gosec // fd fits in int
}

// Detect picks linear output for terminals and CI logs and quiet output
// otherwise.
func Detect(isTerminal bool, ci string) OutputMode {
	isCI := ci == "true" || ci == "1"
	if isTerminal || isCI {
		return ModeLinear
	}
	return ModeQuiet
}

// ResolveMode applies the user's --output flag to the auto-detected mode.
// userFlag should be one of "auto", "linear", "ci", "quiet" or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "linear", "ci":
		return ModeLinear
	case "quiet":
		return ModeQuiet
	default:
		return autoDetected
	}
}

// ValidateMode rejects --output values ResolveMode does not know. An empty
// value means auto.
func ValidateMode(userFlag string) error {
	if userFlag == "" || slices.Contains(ModeFlags, userFlag) {
		return nil
	}
	return domain.Tag(domain.ErrInvalidOutputMode, "output", userFlag, "valid", strings.Join(ModeFlags, ", "))
}
