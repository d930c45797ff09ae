package apiclient

import (
	"context"
	"net/http"

	"invoice-desk/internal/models"
)

func (c *Client) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := c.do(ctx, request{op: "ListCustomers", method: http.MethodGet, path: "/customers/"}, &customers)
	return customers, err
}

func (c *Client) CreateCustomer(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, request{op: "CreateCustomer", method: http.MethodPost, path: "/customers/", body: in}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, in models.CustomerInput) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, request{op: "UpdateCustomer", method: http.MethodPatch, path: idPath("/customers", id), body: in}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "DeleteCustomer", method: http.MethodDelete, path: idPath("/customers", id)}, nil)
}
