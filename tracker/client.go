// Package tracker talks to a remote issue tracker over its REST API and
// implements the directory lookups for repositories and issues. It is the
// drop-in alternative to the local SQLite directory for deployments where
// tickets live in an external system.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hourbook/directory"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient httpDoer
}

type Client struct {
	baseURL    string
	token      string
	userAgent  string
	timeout    time.Duration
	httpClient httpDoer
}

var _ directory.IssueTracker = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		timeout:    timeout,
		httpClient: doer,
	}, nil
}

type repositoryPayload struct {
	ID    int64  `json:"id"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type issuePayload struct {
	ID      int64  `json:"id"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Need    string `json:"need"`
	Project string `json:"project"`
}

// FindRepositoryByName looks up a repository by its distinct "owner/name"
// form (a bare name is passed through as a single path segment). A 404 from
// the tracker yields (nil, nil).
func (c *Client) FindRepositoryByName(name string) (*directory.Repository, error) {
	var payload repositoryPayload
	found, err := c.getJSON(repoPath(name), &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &directory.Repository{ID: payload.ID, Owner: payload.Owner, Name: payload.Name}, nil
}

// FindIssue looks up an issue by number within the repository; (nil, nil)
// when the tracker has no such issue. The tracker reports the project by
// name only; the codec resolves it through the project catalog.
func (c *Client) FindIssue(repo *directory.Repository, number int) (*directory.Issue, error) {
	var payload issuePayload
	path := fmt.Sprintf("%s/issues/%d", repoPath(repo.DistinctName()), number)
	found, err := c.getJSON(path, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &directory.Issue{
		ID:           payload.ID,
		RepositoryID: repo.ID,
		Number:       payload.Number,
		Title:        payload.Title,
		Need:         payload.Need,
		ProjectName:  payload.Project,
	}, nil
}

// getJSON performs a GET and decodes the body; a 404 reports not-found
// without error.
func (c *Client) getJSON(path string, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build tracker request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("tracker request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("tracker request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode tracker response %s: %w", path, err)
	}
	return true, nil
}

func repoPath(name string) string {
	segments := strings.Split(name, "/")
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return "/repos/" + strings.Join(escaped, "/")
}
