package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/docflow/approvals/internal/core/domain"
)

// FetchItems handles GET /items, optionally filtered by code.
func (c *Client) FetchItems(ctx context.Context, filterCode string) ([]domain.Item, error) {
	var params url.Values
	if filterCode != "" {
		params = url.Values{"code": {filterCode}}
	}

	resp, err := c.Request(ctx, http.MethodGet, "/items", params, nil)
	if err != nil {
		return nil, err
	}

	var items []domain.Item
	if err := resp.Decode(&items); err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	for _, it := range items {
		if it.ApprovalStatus != "" && !it.ApprovalStatus.Known() {
			c.log.Warn().Str("item_id", it.ID).Str("status", string(it.ApprovalStatus)).Msg("unknown approval status")
		}
	}
	return items, nil
}

// CreateItem handles POST /items.
func (c *Client) CreateItem(ctx context.Context, item domain.NewItem) (*domain.Item, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/items", nil, item)
	if err != nil {
		return nil, err
	}

	var created domain.Item
	if err := resp.Decode(&created); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &created, nil
}

// DeleteItem handles DELETE /items/:id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := c.Request(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil)
	return err
}

// ApproveItem handles POST /items/:id/approve. The response body is ignored;
// callers re-fetch the list to observe the new state.
func (c *Client) ApproveItem(ctx context.Context, id string) error {
	_, err := c.Request(ctx, http.MethodPost, "/items/"+url.PathEscape(id)+"/approve", nil, nil)
	return err
}
