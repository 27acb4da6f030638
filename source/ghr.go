package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/go-github/v73/github"
	"github.com/google/go-querystring/query"
	"github.com/kokuin/kokuin/client"
	"github.com/kokuin/kokuin/logging"
)

// ghrOptions is re-encoded by String() so the reported source URL is
// canonical regardless of how the query was spelled.
type ghrOptions struct {
	PreRelease bool `url:"pre-release,omitempty"`
}

// GHR resolves the base version from the latest GitHub release tag.
type GHR struct {
	Owner      string `schema:"-"`
	Repo       string `schema:"-"`
	PreRelease bool   `schema:"pre-release"`
	cl         *github.Client
	logger     *logging.Logger
}

// NewGHR returns GHR.
func NewGHR(ctx context.Context, u string, log *logging.Logger) (*GHR, error) {
	ur, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	g := &GHR{
		Owner: ur.Host,
		Repo:  strings.TrimPrefix(removeTrailingSlash(ur.Path), "/"),
	}

	if err := decoder.Decode(g, ur.Query()); err != nil {
		return nil, err
	}

	if g.Owner == "" || g.Repo == "" {
		return nil, fmt.Errorf("owner and repo are required: %s://<owner>/<repo>", ghrScheme)
	}

	g.cl, err = client.NewGitHub()
	if err != nil {
		return nil, err
	}

	g.logger = log
	return g, nil
}

// String to string.
func (g *GHR) String() string {
	s := fmt.Sprintf("%s://%s/%s", ghrScheme, g.Owner, g.Repo)
	qs, err := query.Values(ghrOptions{PreRelease: g.PreRelease})
	if err != nil {
		return s
	}
	if q := qs.Encode(); q != "" {
		s += "?" + q
	}
	return s
}

// BaseVersion returns the latest release tag, bare.
func (g *GHR) BaseVersion(ctx context.Context) (string, error) {
	release, err := g.latest(ctx)
	if err != nil {
		return "", err
	}

	tag := release.GetTagName()
	if tag == "" {
		return "", &VersionNotFoundError{
			Source:  g.String(),
			Message: fmt.Sprintf("release has no tag: %s", g.String()),
		}
	}

	g.logger.Debug("Fetched release", slog.String("tag", tag))
	return strings.TrimPrefix(tag, "v"), nil
}

func (g *GHR) latest(ctx context.Context) (*github.RepositoryRelease, error) {
	if g.PreRelease {
		opt := &github.ListOptions{Page: 1}
		rr, _, err := g.cl.Repositories.ListReleases(ctx, g.Owner, g.Repo, opt)
		if err != nil {
			return nil, fmt.Errorf("failed github.Repositories.ListReleases: %w", err)
		}
		for _, v := range rr {
			if v.GetDraft() {
				continue
			}
			return v, nil
		}
		return nil, &VersionNotFoundError{
			Source:  g.String(),
			Message: fmt.Sprintf("no published release found: %s", g.String()),
		}
	}

	r, _, err := g.cl.Repositories.GetLatestRelease(ctx, g.Owner, g.Repo)
	if err != nil {
		return nil, fmt.Errorf("failed github.Repositories.GetLatestRelease: %w", err)
	}
	return r, nil
}
