package collaborators

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ekyc.backend/internal/domain/collaborators"
)

// DocumentClient talks to the document microservice
type DocumentClient struct {
	httpClient
}

func NewDocumentClient(baseURL string, timeout time.Duration) *DocumentClient {
	return &DocumentClient{httpClient: newHTTPClient(baseURL, "document-service", timeout)}
}

func (c *DocumentClient) GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*collaborators.Document, error) {
	var doc collaborators.Document
	path := fmt.Sprintf("/api/v1/documents/%s", documentID)
	if err := c.getJSON(ctx, path, userID, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus marks a document verified (or rejected) after review
func (c *DocumentClient) UpdateStatus(ctx context.Context, userID, documentID uuid.UUID, status string) error {
	path := fmt.Sprintf("/api/v1/documents/%s/status", documentID)
	return c.putJSON(ctx, path, userID, map[string]string{"status": status})
}

func (c *DocumentClient) GetStats(ctx context.Context, userID uuid.UUID) (*collaborators.DocumentStats, error) {
	var stats collaborators.DocumentStats
	if err := c.getJSON(ctx, "/api/v1/documents/stats", userID, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
