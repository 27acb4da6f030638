package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kokuin/kokuin/logging"
)

// File reads the base version from a version file, whitespace trimmed.
type File struct {
	Path   string `schema:"-"`
	logger *logging.Logger
}

// NewFile returns File. The URL path is taken verbatim, so both
// file://VERSION and file:///etc/myapp/VERSION work.
func NewFile(u string, log *logging.Logger) (*File, error) {
	path := strings.TrimPrefix(u, fileScheme+"://")
	if path == "" {
		return nil, fmt.Errorf("path is required: %s://<path>", fileScheme)
	}

	return &File{Path: path, logger: log}, nil
}

// String to string.
func (f *File) String() string {
	return fmt.Sprintf("%s://%s", fileScheme, f.Path)
}

// BaseVersion returns the file content as the base version.
func (f *File) BaseVersion(ctx context.Context) (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", &VersionNotFoundError{
			Source:  f.String(),
			Message: fmt.Sprintf("version file not readable: %s", f.Path),
		}
	}

	v := strings.TrimSpace(string(b))
	if v == "" {
		return "", &VersionNotFoundError{
			Source:  f.String(),
			Message: fmt.Sprintf("version file is empty: %s", f.Path),
		}
	}

	v = strings.TrimPrefix(v, "v")
	f.logger.Debug("Resolved base version", slog.String("source", f.String()), slog.String("version", v))
	return v, nil
}
