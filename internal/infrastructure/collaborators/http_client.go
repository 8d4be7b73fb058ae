package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "ekyc.backend/internal/domain/errors"
)

// serviceName identifies this service on outgoing collaborator calls
const serviceName = "kyc-service"

// httpClient is the shared transport for collaborator microservices.
// Calls are authenticated with gateway headers, not user tokens.
type httpClient struct {
	baseURL string
	target  string
	client  *http.Client
}

func newHTTPClient(baseURL, target string, timeout time.Duration) httpClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return httpClient{
		baseURL: baseURL,
		target:  target,
		client:  &http.Client{Timeout: timeout},
	}
}

// envelope is the standard response wrapper collaborator services use
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *httpClient) getJSON(ctx context.Context, path string, userID uuid.UUID, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, userID, nil, out)
}

// putJSON and patchJSON send write-backs; callers that treat failures
// as non-fatal log and move on.
func (c *httpClient) putJSON(ctx context.Context, path string, userID uuid.UUID, body interface{}) error {
	return c.do(ctx, http.MethodPut, path, userID, body, nil)
}

func (c *httpClient) patchJSON(ctx context.Context, path string, userID uuid.UUID, body interface{}) error {
	return c.do(ctx, http.MethodPatch, path, userID, body, nil)
}

func (c *httpClient) do(ctx context.Context, method, path string, userID uuid.UUID, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("x-user-id", userID.String())
	req.Header.Set("x-service-name", serviceName)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Upstream(fmt.Sprintf("%s unreachable", c.target), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode >= 400:
		return apperrors.Upstream(
			fmt.Sprintf("%s returned status %d", c.target, resp.StatusCode),
			fmt.Errorf("unexpected status %d", resp.StatusCode),
		)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.Upstream(fmt.Sprintf("%s sent malformed response", c.target), err)
	}
	if !env.Success {
		return apperrors.Upstream(fmt.Sprintf("%s rejected the request: %s", c.target, env.Message), fmt.Errorf("success=false"))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
