package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const maxFilenameLen = 200

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Writer persists finished reports as markdown files named after the query.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "output"
	}
	return &Writer{dir: dir}
}

// Write stores the report under <dir>/<sanitized query>.md and returns the
// file path.
func (w *Writer) Write(query, report string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, SanitizeFilename(query)+".md")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// SanitizeFilename turns an arbitrary query into a safe filename: unsafe
// characters become underscores, trailing dots and spaces are trimmed, and
// the result is capped at 200 characters.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
		name = strings.Trim(name, " .")
	}
	if name == "" {
		name = "research_report"
	}
	return name
}
