package apiclient

import (
	"context"
	"net/http"

	"invoice-desk/internal/models"
)

type loginResponse struct {
	User *models.User `json:"user"`
}

// Login checks shop credentials. When the server omits the user record the
// shop name from the request stands in for it.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	var resp loginResponse
	if err := c.do(ctx, request{op: "Login", method: http.MethodPost, path: "/auth/login/", body: req}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return &models.User{ShopName: req.ShopName}, nil
	}
	return resp.User, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) error {
	return c.do(ctx, request{op: "Signup", method: http.MethodPost, path: "/auth/signup/", body: req}, nil)
}
