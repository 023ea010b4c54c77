package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// ErrNotFound reports that the requested drive item does not exist.
var ErrNotFound = errors.New("drive item not found")

// APIError is a non-2xx Graph response that is not a plain not-found.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the Graph drive API through an authenticated HTTP client
// (see msauth.Manager.Client). A Client is immutable and safe for
// concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient wraps the authenticated HTTP client. An empty baseURL selects
// [DefaultBaseURL].
func NewClient(httpc *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// GetRoot returns the drive root folder.
func (c *Client) GetRoot(ctx context.Context) (*File, error) {
	return c.getItem(ctx, c.baseURL+"/me/drive/root")
}

// GetFileByID returns the item with the given ID.
func (c *Client) GetFileByID(ctx context.Context, itemID string) (*File, error) {
	return c.getItem(ctx, c.baseURL+"/me/drive/items/"+url.PathEscape(itemID))
}

// GetFileByPath returns the item at the drive-relative path. "/" and ""
// resolve to the root.
func (c *Client) GetFileByPath(ctx context.Context, path string) (*File, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return c.GetRoot(ctx)
	}
	return c.getItem(ctx, c.baseURL+"/me/drive/root:/"+escapePath(path))
}

// GetChildren lists a folder's children. An empty or "root" itemID lists
// the drive root. Paginated responses are followed to the end.
func (c *Client) GetChildren(ctx context.Context, itemID string) ([]*File, error) {
	u := c.baseURL + "/me/drive/root/children"
	if itemID != "" && itemID != "root" {
		u = c.baseURL + "/me/drive/items/" + url.PathEscape(itemID) + "/children"
	}

	var files []*File
	for u != "" {
		resp, err := c.get(ctx, u)
		if err != nil {
			return nil, err
		}
		var page itemPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode children page: %w", err)
		}
		for _, item := range page.Value {
			files = append(files, item.toFile())
		}
		u = page.NextLink
	}
	return files, nil
}

// GetContent opens the item's content stream. The caller owns the returned
// body. Size is the Content-Length when known, -1 otherwise.
func (c *Client) GetContent(ctx context.Context, itemID string) (body io.ReadCloser, size int64, err error) {
	resp, err := c.get(ctx, c.baseURL+"/me/drive/items/"+url.PathEscape(itemID)+"/content")
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) getItem(ctx context.Context, u string) (*File, error) {
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var item driveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("decode drive item: %w", err)
	}
	return item.toFile(), nil
}

// get issues the request and maps non-2xx statuses to errors. The response
// body is only returned on success.
func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var wire struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&wire); err == nil {
		apiErr.Code = wire.Error.Code
		apiErr.Message = wire.Error.Message
	}
	return nil, apiErr
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
