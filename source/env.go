package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kokuin/kokuin/logging"
)

// Env reads the base version from an environment variable.
type Env struct {
	Name   string `schema:"-"`
	logger *logging.Logger
}

// NewEnv returns Env.
func NewEnv(u string, log *logging.Logger) (*Env, error) {
	name := strings.TrimPrefix(u, envScheme+"://")
	if name == "" {
		return nil, fmt.Errorf("variable name is required: %s://<name>", envScheme)
	}

	return &Env{Name: name, logger: log}, nil
}

// String to string.
func (e *Env) String() string {
	return fmt.Sprintf("%s://%s", envScheme, e.Name)
}

// BaseVersion returns the variable value as the base version.
func (e *Env) BaseVersion(ctx context.Context) (string, error) {
	v := strings.TrimSpace(os.Getenv(e.Name))
	if v == "" {
		return "", &VersionNotFoundError{
			Source:  e.String(),
			Message: fmt.Sprintf("environment variable is empty: %s", e.Name),
		}
	}

	v = strings.TrimPrefix(v, "v")
	e.logger.Debug("Resolved base version", slog.String("source", e.String()), slog.String("version", v))
	return v, nil
}
