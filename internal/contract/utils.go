package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/mri/schema"
)

// Category label constants.
const (
	CriticalValue = "Critical" // Critical value
	WarningValue  = "Warning"  // Warning value
	HealthyValue  = "Healthy"  // Healthy value
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold) // CriticalColor represents standard danger.
	WarningColor  = color.New(color.FgYellow)          // WarningColor represents standard caution, not bold.
	HealthyColor  = color.New(color.FgGreen)           // HealthyColor represents a file with nothing to do.
	ImproveColor  = color.New(color.FgGreen)           // ImproveColor marks a delta in the good direction.
	RegressColor  = color.New(color.FgRed)             // RegressColor marks a delta in the bad direction.
)

// GetPlainLabel returns a plain text label for a category. This is the
// core logic used for CSV, JSON, and table printing.
func GetPlainLabel(c schema.Category) string {
	switch c {
	case schema.CriticalCategory:
		return CriticalValue
	case schema.WarningCategory:
		return WarningValue
	default:
		return HealthyValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(c schema.Category) string {
	text := GetPlainLabel(c)

	switch text {
	case CriticalValue:
		return CriticalColor.Sprint(text)
	case WarningValue:
		return WarningColor.Sprint(text)
	default:
		return HealthyColor.Sprint(text)
	}
}

// FormatDelta renders a signed delta. When useColors is set, the sign that
// means "healthier" is green. higherIsBetter tells which sign that is.
func FormatDelta(delta float64, precision int, higherIsBetter, useColors bool) string {
	text := fmt.Sprintf("%+.*f", precision, delta)
	if !useColors || delta == 0 {
		return text
	}
	if (delta > 0) == higherIsBetter {
		return ImproveColor.Sprint(text)
	}
	return RegressColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a progress message to stderr so stdout stays machine readable.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GetDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mri_snapshots.db"
	}
	return filepath.Join(homeDir, ".mri_snapshots.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
