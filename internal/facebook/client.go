package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sociallift/pagereply/internal/pipeline"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v22.0"
)

// Client posts comment replies through the Graph API. It implements the
// pipeline's PlatformPoster port.
type Client struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

func NewClient(baseURL, version string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		BaseURL: baseURL,
		Version: version,
		// Generation plus posting can take a while on the platform side.
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

var _ pipeline.PlatformPoster = (*Client)(nil)

type postCommentResponse struct {
	ID string `json:"id"`
}

// PostComment publishes message as a reply under commentID and returns the
// platform's id for the new reply comment. The id may be empty even on a
// 200 response; callers treat that as an unknown outcome.
func (c *Client) PostComment(ctx context.Context, commentID, message, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/comments", c.BaseURL, c.Version, url.PathEscape(commentID))

	params := url.Values{}
	params.Set("message", message)
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post comment reply: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("graph api status %d: %s", resp.StatusCode, string(body))
	}

	var out postCommentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.ID, nil
}
