package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"invoice-desk/internal/models"
)

// ListItems fetches the full catalog
func (c *Client) ListItems(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := c.do(ctx, request{op: "ListItems", method: http.MethodGet, path: "/items/"}, &items)
	return items, err
}

// SearchItems asks the server to match term against item names
func (c *Client) SearchItems(ctx context.Context, term string) ([]models.Product, error) {
	var items []models.Product
	err := c.do(ctx, request{
		op:     "SearchItems",
		method: http.MethodGet,
		path:   "/items/",
		query:  url.Values{"search": {term}},
	}, &items)
	return items, err
}

func (c *Client) CreateItem(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	var item models.Product
	if err := c.do(ctx, request{op: "CreateItem", method: http.MethodPost, path: "/items/", body: in}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	var item models.Product
	if err := c.do(ctx, request{op: "UpdateItem", method: http.MethodPatch, path: idPath("/items", id), body: in}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "DeleteItem", method: http.MethodDelete, path: idPath("/items", id)}, nil)
}
