package client

import (
	"context"
	"fmt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client. Must complete before any fetch; the token is never refreshed
// mid-run.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	if err := c.post(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("login failed: empty access token in response")
	}
	c.token = resp.AccessToken
	return nil
}

// Authenticated reports whether a login has succeeded on this client.
func (c *Client) Authenticated() bool {
	return c.token != ""
}
