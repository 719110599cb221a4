package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/annoq/schema"
)

// Agreement label constants.
const (
	StrongValue    = "Strong"   // Strong agreement
	ModerateValue  = "Moderate" // Moderate agreement
	WeakValue      = "Weak"     // Weak agreement
	PoorValue      = "Poor"     // Poor or no agreement
	UndefinedValue = "n/a"      // Agreement cannot be computed
)

// Color variables for console output.
var (
	StrongColor    = color.New(color.FgGreen, color.Bold) // StrongColor represents trustworthy agreement.
	ModerateColor  = color.New(color.FgCyan)              // ModerateColor represents usable agreement.
	WeakColor      = color.New(color.FgYellow)            // WeakColor represents standard caution, not bold.
	PoorColor      = color.New(color.FgRed, color.Bold)   // PoorColor represents standard danger.
	UndefinedColor = color.New(color.Faint)               // UndefinedColor de-emphasizes missing values.
)

// GetPlainLabel returns a plain text label for an agreement score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(k schema.Kappa) string {
	v, ok := k.Value()
	switch {
	case !ok:
		return UndefinedValue
	case v >= 0.8:
		return StrongValue
	case v >= 0.6:
		return ModerateValue
	case v >= 0.4:
		return WeakValue
	default:
		return PoorValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(k schema.Kappa) string {
	text := GetPlainLabel(k)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	case PoorValue:
		return PoorColor.Sprint(text)
	default:
		return UndefinedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path and format type. It falls back to os.Stdout on error.
// This function replaces both selectCSVOutputFile and selectJSONOutputFile.
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

// GetStoreDBFilePath returns the path to the SQLite DB file for the task store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".annoq_store.db"
	}
	return filepath.Join(homeDir, ".annoq_store.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the score cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".annoq_cache.db"
	}
	return filepath.Join(homeDir, ".annoq_cache.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
// Without this check, small maxWidth values could cause slice bounds errors in the truncation calculation.
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

// ParseUsers splits a comma separated annotator list, dropping blanks.
func ParseUsers(raw string) []schema.AnnotatorID {
	var users []schema.AnnotatorID
	for part := range strings.SplitSeq(raw, ",") {
		if user := strings.TrimSpace(part); user != "" {
			users = append(users, schema.AnnotatorID(user))
		}
	}
	return users
}
