// Package client builds the authenticated GitHub API client behind the
// ghr:// base-version source.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// NewGitHub creates a GitHub client authenticated from the environment.
// GH_TOKEN is checked before GITHUB_TOKEN to avoid the GitHub Actions
// auto-override of GITHUB_TOKEN.
func NewGitHub() (*github.Client, error) {
	token := os.Getenv("GH_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	if token == "" {
		return nil, fmt.Errorf("no GitHub token found in GITHUB_TOKEN or GH_TOKEN environment variables")
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	client := github.NewClient(tc)

	// Custom API URL for GitHub Enterprise - support both GITHUB_ENDPOINT
	// and GITHUB_API_URL
	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = os.Getenv("GITHUB_ENDPOINT")
	}
	if apiURL != "" {
		baseURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL: %w", err)
		}
		// go-github requires a trailing slash on the base URL
		if baseURL.Path == "" {
			baseURL.Path = "/"
		} else if baseURL.Path[len(baseURL.Path)-1] != '/' {
			baseURL.Path += "/"
		}
		client.BaseURL = baseURL
	}

	return client, nil
}

// NewMockGitHub creates a GitHub client with a mock HTTP client for testing.
func NewMockGitHub(httpClient *http.Client) *github.Client {
	return github.NewClient(httpClient)
}
