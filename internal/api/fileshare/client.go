// internal/api/fileshare/client.go

// Package fileshare is the REST client for the backend's file-share request
// collaborator. Only the card renderer's action handlers consume it.
package fileshare

import (
	"context"
	"fmt"
	"time"

	httpclient "notification-pipeline/internal/common/http"
)

type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpclient.NewClient(timeout),
	}
}

type resolveRequest struct {
	FileShareRequestID string `json:"fileShareRequestId"`
	ResponseStatusID   int    `json:"responseStatusId"`
}

// Resolve answers a pending share request with an accept/decline status
// code (models.ResponseAccepted or models.ResponseDeclined).
func (c *Client) Resolve(ctx context.Context, fileShareRequestID string, responseStatusID int) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, fileShareRequestID)
	body := resolveRequest{
		FileShareRequestID: fileShareRequestID,
		ResponseStatusID:   responseStatusID,
	}
	if err := c.http.DoJSON(ctx, "PATCH", url, c.token, body, nil); err != nil {
		return fmt.Errorf("resolve file share request: %w", err)
	}
	return nil
}
