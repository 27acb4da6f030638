// Package kokuin evaluates a package descriptor: it resolves the base
// version, stamps it with a build identifier, discovers the package tree and
// hands the result off to the packaging collaborators.
package kokuin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/carlescere/scheduler"
	"github.com/kokuin/kokuin/artifact"
	"github.com/kokuin/kokuin/discovery"
	"github.com/kokuin/kokuin/logging"
	"github.com/kokuin/kokuin/manifest"
	"github.com/kokuin/kokuin/notify"
	"github.com/kokuin/kokuin/source"
	"github.com/kokuin/kokuin/version"
)

// Kokuin is the evaluation pipeline behind the stamp and pack commands.
type Kokuin struct {
	config   Config
	manifest *manifest.Manifest
	notify   notify.Notifier
	logger   *logging.Logger
	job      *scheduler.Job
	out      io.Writer
	clock    version.Clock
	sync.RWMutex
	// lastBase is the base of the last successful run. Watch ticks skip it
	// until the resolved base changes; a failed run leaves it untouched so
	// the next tick retries.
	lastBase string
}

// New returns Kokuin. The manifest is loaded once; watch mode re-resolves the
// base version every tick.
func New(c Config, out io.Writer, log *logging.Logger) (*Kokuin, error) {
	m, err := manifest.Load(c.Manifest)
	if err != nil {
		return nil, err
	}

	if c.Source != "" {
		m.Source = c.Source
		m.Version = ""
	}
	if c.Notify != "" {
		m.Notify = c.Notify
	}

	if result := m.Validate(); !result.Valid {
		return nil, result.Err()
	}

	return &Kokuin{
		config:   c,
		manifest: m,
		out:      out,
		logger:   log,
	}, nil
}

// Start runs the evaluation every i seconds until SIGINT/SIGTERM.
func (k *Kokuin) Start(i int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	k.notifier(ctx).Send(ctx, fmt.Sprintf("Watch starting for %s", k.manifest.Name))

	var err error
	k.job, err = scheduler.Every(i).Seconds().Run(func() {
		if err := k.Run(context.Background()); err != nil {
			k.logger.Error("Run failure", slog.String("error", err.Error()))
			k.notifier(ctx).SendError(ctx, err)
		} else {
			k.notifier(ctx).ResetErrorCount()
		}
	})
	if err != nil {
		k.logger.Error("Scheduler failure", slog.String("error", fmt.Sprintf("%#v", err)))
		return
	}

	k.waitSigs()
	k.notifier(ctx).Send(ctx, fmt.Sprintf("Watch stopped for %s", k.manifest.Name))
}

func (k *Kokuin) waitSigs() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sigReceived := <-sigCh
	k.logger.Debug("Received signal", slog.Int("pid", os.Getpid()), slog.String("signal", sigReceived.String()))
	k.job.Quit <- true
}

// notifier lazily builds the configured notifier, degrading to Null.
func (k *Kokuin) notifier(ctx context.Context) notify.Notifier {
	k.Lock()
	defer k.Unlock()

	if k.notify == nil {
		n, err := notify.New(ctx, k.manifest.Notify, k.logger)
		if err != nil {
			k.logger.Error("Notifier failure", slog.String("error", err.Error()))
			n, _ = notify.New(ctx, "", k.logger)
		}
		k.notify = n
	}
	return k.notify
}

// Run performs one evaluation: resolve, stamp, discover, emit, and for PACK
// archive. Each run generates a fresh timestamp.
func (k *Kokuin) Run(ctx context.Context) error {
	m := k.manifest

	base, err := k.resolveBase(ctx)
	if err != nil {
		return err
	}

	if k.config.Interval > 0 && base == k.lastStamped() {
		k.logger.Debug("Base version unchanged, skipping", slog.String("base", base))
		return nil
	}

	scheme := version.Scheme(m.Scheme)
	if _, err := scheme.Parse(base, m.CalVer); err != nil {
		return fmt.Errorf("resolved base version is invalid: %w", err)
	}

	build, err := version.NewGenerator(k.clock).Generate(base)
	if err != nil {
		return err
	}
	k.logger.Info("Stamped build version",
		slog.String("name", m.Name), slog.String("version", build))

	found, err := discovery.Find(m.RootDir(), discovery.Options{Marker: m.Marker, Exclude: m.Exclude})
	if err != nil {
		return err
	}

	name := artifact.Name(m.Name, build, m.ArchiveFormat(), m.Archive.Platform)
	d := &Descriptor{
		Name:        m.Name,
		Version:     build,
		BaseVersion: base,
		Author:      m.Author,
		Description: m.Description,
		Packages:    found.PackageNames(),
		Files:       found.Files,
		Bytes:       found.Bytes,
		Requires:    m.Requires,
		Artifact:    name,
	}

	if err := k.emit(d); err != nil {
		return err
	}

	if k.config.Command == PACK {
		if err := k.pack(ctx, d, found); err != nil {
			return err
		}
		k.recordStamped(base)
		k.notifier(ctx).Send(ctx, fmt.Sprintf("Packed %s", name))
	} else {
		k.recordStamped(base)
		k.notifier(ctx).Send(ctx, fmt.Sprintf("Stamped %s %s", m.Name, build))
	}

	return nil
}

// resolveBase returns the inline version or asks the configured source.
func (k *Kokuin) resolveBase(ctx context.Context) (string, error) {
	m := k.manifest
	if m.Version != "" {
		return m.Version, nil
	}

	src, err := source.New(ctx, m.Source, k.logger)
	if err != nil {
		return "", err
	}

	base, err := src.BaseVersion(ctx)
	if err != nil {
		return "", err
	}
	k.logger.Debug("Resolved base version",
		slog.String("source", src.String()), slog.String("base", base))
	return base, nil
}

func (k *Kokuin) lastStamped() string {
	k.RLock()
	defer k.RUnlock()
	return k.lastBase
}

func (k *Kokuin) recordStamped(base string) {
	k.Lock()
	defer k.Unlock()
	k.lastBase = base
}

// emit renders the descriptor to the configured output.
func (k *Kokuin) emit(d *Descriptor) error {
	b, err := d.Render(k.config.Format)
	if err != nil {
		return err
	}

	if k.config.Output != "" {
		return os.WriteFile(k.config.Output, b, 0644)
	}
	_, err = k.out.Write(b)
	return err
}

// pack archives the discovered package tree with the descriptor embedded,
// wrapped by the before and after hooks.
func (k *Kokuin) pack(ctx context.Context, d *Descriptor, found *discovery.Result) error {
	m := k.manifest

	if err := runHooks(ctx, m.Hooks.Before, filepath.Dir(m.RootDir()), k.logger); err != nil {
		return err
	}

	embedded, err := d.Render("json")
	if err != nil {
		return err
	}

	var files []string
	for _, p := range found.Packages {
		files = append(files, p.Files...)
	}

	dest := filepath.Join(m.DistDir(), d.Artifact)
	a := artifact.NewArchiver(k.logger)
	if err := a.Create(ctx, dest, m.ArchiveFormat(), found.Root, m.Name, files, embedded); err != nil {
		return err
	}

	return runHooks(ctx, m.Hooks.After, filepath.Dir(m.RootDir()), k.logger)
}
