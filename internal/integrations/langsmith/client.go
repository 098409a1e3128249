package langsmith

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const DefaultAPIURL = "https://api.smith.langchain.com"

// HTTPStatusError captures non-2xx registry responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("langsmith: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client pulls prompt templates from the LangSmith prompt hub.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient validates the credentials and endpoint. It performs no I/O.
func NewClient(apiURL, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("langsmith: api key must not be empty")
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("langsmith: invalid api url %q", apiURL)
	}

	c := &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// commitResponse is the subset of GET /commits/{owner}/{repo}/{commit} we read.
type commitResponse struct {
	CommitHash string   `json:"commit_hash"`
	Manifest   manifest `json:"manifest"`
}

// PullPrompt fetches a prompt by identifier ("[owner/]name[:commit]") and
// classifies its manifest.
func (c *Client) PullPrompt(ctx context.Context, identifier string) (Template, error) {
	ref, err := parseIdentifier(identifier)
	if err != nil {
		return Template{}, err
	}

	endpoint := fmt.Sprintf("%s/commits/%s/%s/%s",
		c.apiURL, url.PathEscape(ref.owner), url.PathEscape(ref.name), url.PathEscape(ref.commit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Template{}, fmt.Errorf("langsmith: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	raw, err := c.do(req, endpoint)
	if err != nil {
		return Template{}, fmt.Errorf("langsmith: pull %q: %w", identifier, err)
	}

	var payload commitResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return Template{}, fmt.Errorf("langsmith: decode commit: %w", err)
	}

	return classify(payload.Manifest), nil
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

type promptRef struct {
	owner  string
	name   string
	commit string
}

func parseIdentifier(identifier string) (promptRef, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return promptRef{}, errors.New("langsmith: prompt identifier is empty")
	}

	ref := promptRef{owner: "-", commit: "latest"}
	if name, commit, ok := strings.Cut(identifier, ":"); ok {
		identifier = name
		if commit != "" {
			ref.commit = commit
		}
	}
	if owner, name, ok := strings.Cut(identifier, "/"); ok {
		ref.owner = owner
		identifier = name
	}
	if identifier == "" || ref.owner == "" || strings.Contains(identifier, "/") {
		return promptRef{}, fmt.Errorf("langsmith: malformed prompt identifier %q", identifier)
	}
	ref.name = identifier
	return ref, nil
}
