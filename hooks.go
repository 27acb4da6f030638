package kokuin

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/cli/safeexec"
	"github.com/kokuin/kokuin/logging"
)

// runHooks executes hook commands sequentially with sh -c in dir. The first
// failing hook aborts the rest.
func runHooks(ctx context.Context, hooks []string, dir string, log *logging.Logger) error {
	if len(hooks) == 0 {
		return nil
	}

	// Resolve the shell on PATH without the lookup quirks of exec.LookPath
	// on relative entries.
	sh, err := safeexec.LookPath("sh")
	if err != nil {
		return fmt.Errorf("hook shell not found: %w", err)
	}

	for _, hook := range hooks {
		log.Info("Running hook", slog.String("command", hook))
		cmd := exec.CommandContext(ctx, sh, "-c", hook)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if len(out) > 0 {
			log.Debug("Hook output", slog.String("command", hook), slog.String("output", string(out)))
		}
		if err != nil {
			return fmt.Errorf("hook failed: %s: %w", hook, err)
		}
	}

	return nil
}
