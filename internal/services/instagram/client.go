// Package instagram publishes videos through the Instagram Graph API.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelpost/internal/services"
)

const (
	defaultBaseURL = "https://graph.facebook.com"

	// Video processing polls status_code until FINISHED or the attempt
	// budget runs out.
	statusPollAttempts = 30
	statusPollInterval = 10 * time.Second
)

// Client talks to the Graph API for a single Instagram account.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiVersion   string
	accessToken  string
	accountID    string
	pollInterval time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the Graph API endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithPollInterval overrides the processing poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) { c.pollInterval = interval }
}

// New constructs a Graph API client.
func New(accessToken, accountID, apiVersion string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, services.Wrapf(services.ErrConfiguration, "instagram access token is required")
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, services.Wrapf(services.ErrConfiguration, "instagram account id is required")
	}
	if apiVersion == "" {
		apiVersion = "v18.0"
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      defaultBaseURL,
		apiVersion:   apiVersion,
		accessToken:  accessToken,
		accountID:    accountID,
		pollInterval: statusPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiError struct {
	Message      string `json:"message"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
}

func (e apiError) Error() string {
	if e.ErrorSubcode != 0 {
		return fmt.Sprintf("graph api error %d (subcode %d): %s", e.Code, e.ErrorSubcode, e.Message)
	}
	return fmt.Sprintf("graph api error %d: %s", e.Code, e.Message)
}

type apiResponse struct {
	ID         string    `json:"id"`
	StatusCode string    `json:"status_code"`
	Error      *apiError `json:"error"`
}

// CreateContainer creates a REELS media container for the hosted video and
// returns the creation id.
func (c *Client) CreateContainer(ctx context.Context, videoURL, caption string) (string, error) {
	form := url.Values{
		"access_token": {c.accessToken},
		"caption":      {caption},
		"media_type":   {"REELS"},
		"video_url":    {videoURL},
	}

	endpoint := fmt.Sprintf("%s/%s/%s/media", c.baseURL, c.apiVersion, c.accountID)
	result, err := c.postForm(ctx, endpoint, form)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "create media container", err)
	}
	if result.ID == "" {
		return "", services.Wrapf(services.ErrTransient, "create media container: no container id in response")
	}
	return result.ID, nil
}

// WaitForProcessing polls the container until Instagram finishes transcoding.
func (c *Client) WaitForProcessing(ctx context.Context, creationID string) error {
	statusURL := fmt.Sprintf("%s/%s/%s?fields=status_code&access_token=%s",
		c.baseURL, c.apiVersion, creationID, url.QueryEscape(c.accessToken))

	for attempt := 0; attempt < statusPollAttempts; attempt++ {
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return services.Wrap(services.ErrTimeout, "wait for processing", ctx.Err())
		}

		result, err := c.get(ctx, statusURL)
		if err != nil {
			// transient status check failures are retried on the next poll
			continue
		}

		switch result.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return services.Wrapf(services.ErrValidation, "media processing failed for container %s", creationID)
		default:
			// IN_PROGRESS or unknown, keep polling
		}
	}

	return services.Wrapf(services.ErrTimeout, "media processing did not finish after %d attempts", statusPollAttempts)
}

// Publish publishes a finished container and returns the post id.
func (c *Client) Publish(ctx context.Context, creationID string) (string, error) {
	form := url.Values{
		"access_token": {c.accessToken},
		"creation_id":  {creationID},
	}

	endpoint := fmt.Sprintf("%s/%s/%s/media_publish", c.baseURL, c.apiVersion, c.accountID)
	result, err := c.postForm(ctx, endpoint, form)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish media", err)
	}
	if result.ID == "" {
		return "", services.Wrapf(services.ErrTransient, "publish media: no post id in response")
	}
	return result.ID, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, endpoint string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return nil, *result.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return &result, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
