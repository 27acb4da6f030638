// Package source resolves the base version of a package descriptor from a
// designated metadata source, addressed by URL scheme.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/schema"
	"github.com/kokuin/kokuin/logging"
)

var (
	decoder    = schema.NewDecoder()
	fileScheme = "file"
	envScheme  = "env"
	ghrScheme  = "ghr"
	s3Scheme   = "s3"
	gsScheme   = "gs"
)

// Source yields the base version a descriptor will be stamped with.
type Source interface {
	// BaseVersion returns the base version, bare (no "v" prefix).
	BaseVersion(context.Context) (string, error)
	// String returns the canonical URL of the source.
	String() string
}

// VersionNotFoundError wraps resolution failures with source information.
type VersionNotFoundError struct {
	Source  string
	Message string
}

func (e *VersionNotFoundError) Error() string {
	return e.Message
}

func New(ctx context.Context, url string, log *logging.Logger) (Source, error) {
	splitted := strings.SplitN(url, "://", 2)

	switch splitted[0] {
	case fileScheme:
		return NewFile(url, log)

	case envScheme:
		return NewEnv(url, log)

	case ghrScheme:
		return NewGHR(ctx, url, log)

	case s3Scheme:
		return NewS3(ctx, url, log)

	case gsScheme:
		return NewGS(ctx, url, log)
	}

	return nil, fmt.Errorf("unsupported source: %s", url)
}

func addTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

func removeTrailingSlash(path string) string {
	return strings.TrimSuffix(path, "/")
}
