// Package secret reads API keys from plaintext files.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/i474232898/house-display/internal/timetable"
)

// File resolves a key from the first whitespace-separated token of a file.
type File struct {
	Path string
}

// NewFile returns a File provider for path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Secret reads the file on every call; memoization is left to the caller.
func (f *File) Secret(_ context.Context) (timetable.SecretKey, error) {
	if f.Path == "" {
		return "", fmt.Errorf("%w: secret file path not configured", timetable.ErrCredentialMissing)
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timetable.ErrCredentialMissing, err)
	}

	return Parse(string(data))
}

// Parse returns the first token of content.
func Parse(content string) (timetable.SecretKey, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: secret file is empty", timetable.ErrCredentialMissing)
	}
	return timetable.SecretKey(fields[0]), nil
}
