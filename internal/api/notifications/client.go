// internal/api/notifications/client.go

// Package notifications is the REST client for the backend's notifications
// collaborator.
package notifications

import (
	"context"
	"fmt"
	"time"

	httpclient "notification-pipeline/internal/common/http"
	"notification-pipeline/internal/models"
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

// List fetches all notifications for the current user.
func (c *Client) List(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := c.http.DoJSON(ctx, "GET", c.baseURL, c.token, nil, &out); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkSeen acknowledges one notification by id.
func (c *Client) MarkSeen(ctx context.Context, notificationID string) error {
	url := fmt.Sprintf("%s/%s/seen", c.baseURL, notificationID)
	if err := c.http.DoJSON(ctx, "PATCH", url, c.token, nil, nil); err != nil {
		return fmt.Errorf("mark notification seen: %w", err)
	}
	return nil
}
