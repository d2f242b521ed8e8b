package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// UsersClient adapts the atomic Users service.
//
// The Users service is the permissive upstream: its bodies occasionally
// arrive with Python literal spellings, so strict decode failures get one
// tolerant re-parse.
type UsersClient struct {
	client *Client
}

// NewUsersClient creates an adapter for the Users service at baseURL.
func NewUsersClient(baseURL string, timeout time.Duration) *UsersClient {
	return &UsersClient{
		client: NewClient(ClientConfig{
			BaseURL:  baseURL,
			Service:  "users",
			Timeout:  timeout,
			Tolerant: true,
		}),
	}
}

// Get fetches a user record by id.
func (u *UsersClient) Get(ctx context.Context, id int64) (Document, error) {
	return u.client.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, nil)
}

// Create creates a user and returns the upstream record.
func (u *UsersClient) Create(ctx context.Context, payload map[string]interface{}) (Document, error) {
	return u.client.doSlashRetry(ctx, http.MethodPost, "/users", nil, payload)
}

// Delete removes a user. A 204 or empty body is normalized to a synthetic
// deleted-confirmation document.
func (u *UsersClient) Delete(ctx context.Context, id int64) (Document, error) {
	doc, err := u.client.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
	if err != nil {
		return Document{}, err
	}
	if doc.IsZero() {
		return DocumentFrom(map[string]interface{}{"status": "deleted", "id": id})
	}
	return doc, nil
}
