package authsdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// GetLiveness reports whether the process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.send(ctx, get("/livez", &health)); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks the database and the signing keys. A degraded
// instance answers 503; the report is still returned next to the
// *APIError so callers can see which check failed.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.roundTrip(ctx, call{method: http.MethodGet, path: "/readyz"}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if json.Unmarshal(body, &health) != nil || health.Status == "" {
		return nil, parseErrorResponse(resp, body)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, &APIError{StatusCode: resp.StatusCode, Message: health.Status}
	}
	return &health, nil
}
