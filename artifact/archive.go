package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kokuin/kokuin/logging"
	"github.com/mholt/archives"
)

// DescriptorFile is the evaluated descriptor embedded at the archive root.
const DescriptorFile = "KOKUIN.json"

// Archiver writes package trees into archives via mholt/archives.
type Archiver struct {
	logger *logging.Logger
}

// NewArchiver returns Archiver.
func NewArchiver(log *logging.Logger) *Archiver {
	return &Archiver{logger: log}
}

// format returns the archives format for a manifest archive format name.
func format(name string) (archives.Archiver, error) {
	switch name {
	case "tar.gz":
		return archives.CompressedArchive{
			Compression: archives.Gz{},
			Archival:    archives.Tar{},
		}, nil
	case "zip":
		return archives.Zip{}, nil
	}
	return nil, fmt.Errorf("unsupported archive format: %s", name)
}

// Create writes dest in the given format. The files, given relative to root,
// are placed under a top-level directory named pkg, and descriptor is embedded
// as pkg/KOKUIN.json.
func (a *Archiver) Create(ctx context.Context, dest, formatName, root, pkg string, files []string, descriptor []byte) error {
	f, err := format(formatName)
	if err != nil {
		return err
	}

	// The descriptor only exists in memory; FilesFromDisk wants paths.
	tmp, err := os.CreateTemp("", "kokuin-descriptor-*")
	if err != nil {
		return fmt.Errorf("failed to stage descriptor: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(descriptor); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage descriptor: %w", err)
	}

	names := map[string]string{
		tmp.Name(): filepath.ToSlash(filepath.Join(pkg, DescriptorFile)),
	}
	for _, rel := range files {
		names[filepath.Join(root, rel)] = filepath.ToSlash(filepath.Join(pkg, rel))
	}

	fileInfos, err := archives.FilesFromDisk(ctx, nil, names)
	if err != nil {
		return fmt.Errorf("failed to collect files: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create dist directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	if err := f.Archive(ctx, out, fileInfos); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to write archive: %w", err)
	}

	a.logger.Info("Created archive",
		slog.String("path", dest),
		slog.String("format", formatName),
		slog.Int("files", len(files)))
	return nil
}
