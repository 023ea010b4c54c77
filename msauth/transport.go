package msauth

import (
	"fmt"
	"io"
	"net/http"
)

// Transport is the request wrapper every outbound Graph call goes through.
// It ensures a fresh bearer token before the request and, on a 401
// response, forces one refresh and retries exactly once. Two consecutive
// 401s mean two attempts total and the second response is returned to the
// caller as is.
type Transport struct {
	base    http.RoundTripper
	manager *Manager
}

// NewTransport wraps base with bearer-token injection. A nil base means
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, manager *Manager) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, manager: manager}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.manager.EnsureValid(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(t.authorized(req, tok.AccessToken))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// A consumed body cannot be replayed; surface the 401 instead of
	// retrying with a truncated request.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	tok, err = t.manager.ForceRefresh(req.Context())
	if err != nil {
		return nil, fmt.Errorf("unauthorized and refresh failed: %w", err)
	}

	retry := t.authorized(req, tok.AccessToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	t.manager.retriedRequests.Add(1)
	return t.base.RoundTrip(retry)
}

// authorized clones the request with the bearer header set; the caller's
// request is never mutated.
func (t *Transport) authorized(req *http.Request, accessToken string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+accessToken)
	return clone
}
