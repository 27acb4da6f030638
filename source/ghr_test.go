package source

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/kokuin/kokuin/client"
	"github.com/migueleliasweb/go-github-mock/src/mock"
)

func TestNewGHR(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "dummy")

	if _, err := NewGHR(context.Background(), "ghr://foo", testLogger()); err == nil {
		t.Error("expected error for missing repo")
	}

	g, err := NewGHR(context.Background(), "ghr://acme/mypkg?pre-release=true", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if g.Owner != "acme" || g.Repo != "mypkg" || !g.PreRelease {
		t.Errorf("unexpected GHR: %+v", g)
	}
	if g.String() != "ghr://acme/mypkg?pre-release=true" {
		t.Errorf("unexpected String(): %s", g.String())
	}
}

func TestGHRBaseVersion(t *testing.T) {
	tests := []struct {
		name       string
		preRelease bool
		mockClient *http.Client
		expected   string
		expectErr  bool
	}{
		{
			name: "latest release tag is stripped of v prefix",
			mockClient: mock.NewMockedHTTPClient(
				mock.WithRequestMatch(
					mock.GetReposReleasesLatestByOwnerByRepo,
					github.RepositoryRelease{
						TagName: github.String("v1.2.3"),
					},
				),
			),
			expected: "1.2.3",
		},
		{
			name:       "pre-release picks first published release",
			preRelease: true,
			mockClient: mock.NewMockedHTTPClient(
				mock.WithRequestMatch(
					mock.GetReposReleasesByOwnerByRepo,
					[]github.RepositoryRelease{
						{
							TagName: github.String("v2.0.0-rc.1"),
							Draft:   github.Bool(true),
						},
						{
							TagName:    github.String("v2.0.0-beta.2"),
							Prerelease: github.Bool(true),
						},
					},
				),
			),
			expected: "2.0.0-beta.2",
		},
		{
			name: "release without tag is an error",
			mockClient: mock.NewMockedHTTPClient(
				mock.WithRequestMatch(
					mock.GetReposReleasesLatestByOwnerByRepo,
					github.RepositoryRelease{},
				),
			),
			expectErr: true,
		},
		{
			name:       "only drafts is an error",
			preRelease: true,
			mockClient: mock.NewMockedHTTPClient(
				mock.WithRequestMatch(
					mock.GetReposReleasesByOwnerByRepo,
					[]github.RepositoryRelease{
						{
							TagName: github.String("v1.0.0"),
							Draft:   github.Bool(true),
						},
					},
				),
			),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GHR{
				Owner:      "test-owner",
				Repo:       "test-repo",
				PreRelease: tt.preRelease,
				cl:         client.NewMockGitHub(tt.mockClient),
				logger:     testLogger(),
			}

			got, err := g.BaseVersion(context.Background())
			if tt.expectErr {
				var nf *VersionNotFoundError
				if err == nil {
					t.Errorf("expected error but got nil")
				} else if !errors.As(err, &nf) {
					// GetLatestRelease on an empty mock response can also
					// surface as a wrapped client error, which is fine.
					t.Logf("non VersionNotFoundError error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
