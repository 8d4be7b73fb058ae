package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ekyc.backend/internal/domain/collaborators"
)

// FaceMatchClient calls an external biometric comparison provider.
// The provider receives the stored image paths and answers with a
// confidence score; callers degrade to the simulated matcher when it
// is unreachable.
type FaceMatchClient struct {
	baseURL string
	client  *http.Client
}

func NewFaceMatchClient(baseURL string, timeout time.Duration) *FaceMatchClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FaceMatchClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *FaceMatchClient) Compare(ctx context.Context, idDocumentPath, selfiePath string) (*collaborators.FaceMatchResult, error) {
	payload, err := json.Marshal(map[string]string{
		"idDocumentPath": idDocumentPath,
		"selfiePath":     selfiePath,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/face-match", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-service-name", serviceName)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face match provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("face match provider returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("face match provider sent malformed response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("face match provider rejected the request: %s", env.Message)
	}

	var out struct {
		Confidence int  `json:"confidence"`
		IsMatch    bool `json:"isMatch"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, err
	}
	return &collaborators.FaceMatchResult{
		Score:     out.Confidence,
		Match:     out.IsMatch,
		Simulated: false,
	}, nil
}
