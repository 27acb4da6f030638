package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/kokuin/kokuin/logging"
	"github.com/kokuin/kokuin/version"
	"google.golang.org/api/iterator"
)

const (
	gsFormat string = "gs://<bucket>/<prefix>"
)

// GS resolves the base version from the highest versioned prefix under a
// Google Cloud Storage prefix.
type GS struct {
	Bucket     string `schema:"-"`
	Prefix     string `schema:"-"`
	PreRelease bool   `schema:"pre-release"`
	client     GSClient
	logger     *logging.Logger
}

// NewGS returns GS.
func NewGS(ctx context.Context, u string, log *logging.Logger) (*GS, error) {
	return NewGSWithClient(ctx, u, log, nil)
}

// NewGSWithClient returns GS with custom client (for testing).
func NewGSWithClient(ctx context.Context, u string, log *logging.Logger, client GSClient) (*GS, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	bucket := ur.Host
	prefix := ""
	if ur.Path != "" {
		path := strings.TrimPrefix(ur.Path, "/")
		if path != "" {
			prefix = addTrailingSlash(path)
		}
	}

	g := &GS{
		Bucket: bucket,
		Prefix: prefix,
		logger: log,
	}
	if err = decoder.Decode(g, ur.Query()); err != nil {
		return nil, err
	}

	if g.Bucket == "" {
		return nil, fmt.Errorf("bucket is required: %s", gsFormat)
	}

	if client == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		g.client = client
	} else {
		g.client = client
	}

	return g, nil
}

// String to string.
func (g *GS) String() string {
	var qstr string
	if g.PreRelease {
		qstr = "?pre-release=true"
	}

	return fmt.Sprintf("%s://%s/%s%s", gsScheme, g.Bucket, removeTrailingSlash(g.Prefix), qstr)
}

// BaseVersion returns the highest version below the prefix, bare.
func (g *GS) BaseVersion(ctx context.Context) (string, error) {
	_, ver, err := g.LatestVersion(ctx)
	if err != nil {
		return "", err
	}

	g.logger.Debug("Resolved base version", slog.String("source", g.String()), slog.String("version", ver.String()))
	return ver.Bare(), nil
}

type GSClient interface {
	Bucket(name string) *storage.BucketHandle
	Close() error
}

func (g *GS) extractNameFromObjectName(name, prefix string) string {
	return strings.TrimPrefix(removeTrailingSlash(name), prefix)
}

// LatestVersion lists prefixes directly under Prefix and returns the highest
// semantic version among them.
func (g *GS) LatestVersion(ctx context.Context) (string, *version.SemVer, error) {
	bucket := g.client.Bucket(g.Bucket)
	query := &storage.Query{
		Prefix:    g.Prefix,
		Delimiter: "/",
	}

	var versionNames []string
	var objectMap = make(map[string]string)

	it := bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to list objects: %w", err)
		}

		// Skip regular files, only process directories (prefixes)
		if attrs.Prefix == "" {
			continue
		}

		name := g.extractNameFromObjectName(attrs.Prefix, g.Prefix)
		versionNames = append(versionNames, name)
		objectMap[name] = attrs.Prefix
	}

	latestVersion, latestName, err := version.FindLatestSemVer(versionNames, g.PreRelease)
	if err != nil {
		return "", nil, &VersionNotFoundError{
			Source:  g.String(),
			Message: fmt.Sprintf("no versioned prefix found: %s", g.String()),
		}
	}

	return objectMap[latestName], latestVersion, nil
}
