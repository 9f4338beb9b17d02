// Package upstream talks to the short-video provider's open API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// DefaultBaseURL is the provider's open API root.
const DefaultBaseURL = "https://open.tiktokapis.com/v2"

// Video is the fixed projection requested from the listing endpoint.
type Video struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CreateTime    int64  `json:"create_time"`
	CoverImageURL string `json:"cover_image_url"`
	ShareURL      string `json:"share_url"`
	ViewCount     int64  `json:"view_count"`
	LikeCount     int64  `json:"like_count"`
	CommentCount  int64  `json:"comment_count"`
	ShareCount    int64  `json:"share_count"`
}

// Client handles communication with the provider's video and user endpoints.
type Client struct {
	baseURL    string
	maxCount   int
	fields     []string
	httpClient *http.Client
}

// NewClient creates a provider API client with the given listing page size
// and field projection.
func NewClient(baseURL string, maxCount int, fields []string) *Client {
	return NewClientWithHTTPClient(baseURL, maxCount, fields, nil)
}

// NewClientWithHTTPClient allows injecting a custom HTTP client.
func NewClientWithHTTPClient(baseURL string, maxCount int, fields []string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxCount:   maxCount,
		fields:     fields,
		httpClient: httpClient,
	}
}

type listPage struct {
	Videos  []Video         `json:"videos"`
	Cursor  json.RawMessage `json:"cursor"`
	HasMore bool            `json:"has_more"`
}

type listResponse struct {
	Data listPage `json:"data"`
}

// ListAllVideos pages through every video owned by the authenticated account
// and returns them in provider order. The token is validated by the caller
// before the first page; a token expiring mid-run surfaces as an upstream
// error on the next page.
func (c *Client) ListAllVideos(ctx context.Context, accessToken string) ([]Video, error) {
	var all []Video
	var cursor json.RawMessage
	page := 1

	for {
		body := map[string]any{
			"max_count": c.maxCount,
			"fields":    c.fields,
		}
		if cursorActive(cursor) {
			body["cursor"] = cursor
		}

		log.Printf("[video.list] page=%d max_count=%d", page, c.maxCount)
		resp, err := c.postJSON(ctx, "/video/list/", accessToken, body)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Data.Videos...)
		cursor = resp.Data.Cursor
		log.Printf("[video.list] got=%d has_more=%v next_cursor=%s", len(resp.Data.Videos), resp.Data.HasMore, cursor)

		if !resp.Data.HasMore || !cursorActive(cursor) {
			break
		}
		page++
	}

	log.Printf("[video.list] total videos: %d", len(all))
	return all, nil
}

// cursorActive reports whether the continuation cursor demands another page.
// The cursor is opaque; absent, null, empty and zero values all terminate.
func cursorActive(cursor json.RawMessage) bool {
	switch strings.TrimSpace(string(cursor)) {
	case "", "null", `""`, "0":
		return false
	}
	return true
}

func (c *Client) postJSON(ctx context.Context, path, accessToken string, body map[string]any) (*listResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", path, err)
	}

	url := c.baseURL + path + "?fields=" + strings.Join(c.fields, ",")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, NewError("video.list", resp.StatusCode, raw)
	}

	var out listResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &out, nil
}

type userInfoResponse struct {
	Data struct {
		User struct {
			OpenID string `json:"open_id"`
		} `json:"user"`
	} `json:"data"`
}

// FetchOpenID retrieves the authenticated account's opaque user identifier.
func (c *Client) FetchOpenID(ctx context.Context, accessToken string) (string, error) {
	url := c.baseURL + "/user/info/?fields=open_id,display_name,avatar_url"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build user.info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get user.info: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read user.info response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", NewError("user.info", resp.StatusCode, raw)
	}

	var out userInfoResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode user.info response: %w", err)
	}
	return out.Data.User.OpenID, nil
}
