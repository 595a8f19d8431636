// Package apiclient is the HTTP consumer of the marks JSON API. It
// implements the client store's Gateway over /api/v1 and its notification
// feed over the SSE endpoint, authenticated by an API token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marksapp/marks/internal/api"
	"github.com/marksapp/marks/internal/store"
)

// Client talks to a marks server. The zero value is not usable; use New.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the server at baseURL (e.g.
// "https://marks.example.com") authenticating with the given API token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

// List fetches the caller's bookmarks, newest first.
func (c *Client) List(ctx context.Context) ([]*store.Bookmark, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/bookmarks", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var body api.BookmarkListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode bookmark list: %w", err)
	}
	out := make([]*store.Bookmark, 0, len(body.Bookmarks))
	for _, b := range body.Bookmarks {
		out = append(out, &store.Bookmark{
			ID:        b.ID,
			Title:     b.Title,
			URL:       b.URL,
			CreatedAt: b.CreatedAt,
		})
	}
	return out, nil
}

// Insert creates a bookmark and returns the authoritative row.
func (c *Client) Insert(ctx context.Context, title, url string) (*store.Bookmark, error) {
	payload, err := json.Marshal(api.CreateBookmarkRequest{Title: title, URL: url})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/bookmarks", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var b api.BookmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bookmark: %w", err)
	}
	return &store.Bookmark{
		ID:        b.ID,
		Title:     b.Title,
		URL:       b.URL,
		CreatedAt: b.CreatedAt,
	}, nil
}

// Delete removes a bookmark by id. Deleting an id the server no longer has
// is not an error from the caller's point of view; the row is gone either
// way.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/v1/bookmarks/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return apiError(resp)
	}
}
