package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// call describes one JSON round trip. A nil out discards the body.
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	want    int
	out     any
	cookies []*http.Cookie
}

func get(path string, out any) call {
	return call{method: http.MethodGet, path: path, want: http.StatusOK, out: out}
}

// send performs c without credentials.
func (cl *SDKClient) send(ctx context.Context, c call) error {
	return cl.sendWithToken(ctx, c, "")
}

// send performs c with the session's access token, rotating the pair first
// when the token is about to expire.
func (s *Session) send(ctx context.Context, c call) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.sendWithToken(ctx, c, token)
}

func (cl *SDKClient) sendWithToken(ctx context.Context, c call, token string) error {
	resp, err := cl.roundTrip(ctx, c, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("authsdk: read %s %s: %w", c.method, c.path, err)
	}
	if resp.StatusCode != c.want {
		return parseErrorResponse(resp, body)
	}
	if c.out == nil {
		return nil
	}
	if err := json.Unmarshal(body, c.out); err != nil {
		return fmt.Errorf("authsdk: decode %s %s: %w", c.method, c.path, err)
	}
	return nil
}

// roundTrip sends c and hands back the raw response. The caller closes the
// body.
func (cl *SDKClient) roundTrip(ctx context.Context, c call, token string) (*http.Response, error) {
	var rd io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("authsdk: encode %s %s: %w", c.method, c.path, err)
		}
		rd = bytes.NewReader(b)
	}

	target := cl.BaseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, c.method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := cl.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authsdk: %s %s: %w", c.method, c.path, err)
	}
	return resp, nil
}
