package upstream

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// AddressesClient adapts the atomic Addresses service.
type AddressesClient struct {
	client *Client
}

// NewAddressesClient creates an adapter for the Addresses service at baseURL.
func NewAddressesClient(baseURL string, timeout time.Duration) *AddressesClient {
	return &AddressesClient{
		client: NewClient(ClientConfig{
			BaseURL: baseURL,
			Service: "addresses",
			Timeout: timeout,
		}),
	}
}

// List queries addresses. Filters with empty values are omitted before
// transmission.
func (a *AddressesClient) List(ctx context.Context, filters map[string]string) (Document, error) {
	query := url.Values{}
	for key, value := range filters {
		if value == "" {
			continue
		}
		query.Set(key, value)
	}
	return a.client.doSlashRetry(ctx, http.MethodGet, "/addresses", query, nil)
}

// Get fetches a single address by id.
func (a *AddressesClient) Get(ctx context.Context, id string) (Document, error) {
	return a.client.do(ctx, http.MethodGet, "/addresses/"+url.PathEscape(id), nil, nil)
}

// Create creates an address and returns the upstream record.
func (a *AddressesClient) Create(ctx context.Context, payload map[string]interface{}) (Document, error) {
	return a.client.doSlashRetry(ctx, http.MethodPost, "/addresses", nil, payload)
}

// Delete removes an address. A 204 or empty body is normalized to a
// synthetic deleted-confirmation document.
func (a *AddressesClient) Delete(ctx context.Context, id string) (Document, error) {
	doc, err := a.client.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return Document{}, err
	}
	if doc.IsZero() {
		return DocumentFrom(map[string]interface{}{"status": "deleted", "id": id})
	}
	return doc, nil
}
