// Package storage stores lesson audio on the local filesystem
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// allowedContentTypes maps accepted audio content types to file extensions
var allowedContentTypes = map[string]string{
	"audio/m4a":  "m4a",
	"audio/mp4":  "m4a",
	"audio/mp3":  "mp3",
	"audio/mpeg": "mp3",
	"audio/wav":  "wav",
	"audio/webm": "webm",
}

// IsAllowedContentType reports whether the content type is an accepted audio format
func IsAllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

// ExtensionForContentType returns the file extension for an accepted audio
// content type, or "m4a" when the type carries no extension hint
func ExtensionForContentType(contentType string) string {
	if ext, ok := allowedContentTypes[contentType]; ok {
		return ext
	}
	return "m4a"
}

// GenerateFilename builds a collision-free audio filename for a lesson
func GenerateFilename(lessonID, extension string) string {
	extension = strings.TrimPrefix(extension, ".")
	return fmt.Sprintf("%s_%s.%s", lessonID, uuid.NewString(), extension)
}

// localStorage implements audio file storage on the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) *localStorage {
	return &localStorage{
		basePath: basePath,
	}
}

// Path returns the full on-disk path for a stored filename
func (s *localStorage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// Save writes audio content under the given filename and returns the number
// of bytes written
func (s *localStorage) Save(filename string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return 0, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.Create(s.Path(filename))
	if err != nil {
		return 0, fmt.Errorf("failed to create audio file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, src)
	if err != nil {
		return 0, fmt.Errorf("failed to write audio file: %w", err)
	}

	return written, nil
}

// Delete removes a stored audio file
func (s *localStorage) Delete(filename string) error {
	if err := os.Remove(s.Path(filename)); err != nil {
		return fmt.Errorf("failed to delete audio file: %w", err)
	}
	return nil
}

// ListOlderThan returns the names of stored audio files last modified before
// the cutoff. Cleanup uses the cutoff as a grace period so a file saved for
// an upload still in flight is never mistaken for an orphan.
func (s *localStorage) ListOlderThan(cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat audio file: %w", err)
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
