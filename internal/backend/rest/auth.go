package rest

import (
	"context"
	"errors"
	"net/http"

	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Session backend.Session  `json:"session"`
	User    backend.Identity `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	return c.authenticate(ctx, "/api/auth/signin", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*backend.Session, error) {
	var resp authResponse
	err := c.send(c.httpClient.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		SetHeader("Content-Type", "application/json").
		SetBody(credentials{Email: email, Password: password}), http.MethodPost, path, &resp)
	if err != nil {
		return nil, err
	}
	session := resp.Session
	session.User = resp.User
	c.setSession(&session)
	c.notify(models.EventSignedIn)
	return &session, nil
}

// Refresh trades the refresh token for a new access token on the same session.
func (c *Client) Refresh(ctx context.Context) (*backend.Session, error) {
	current := c.currentSession()
	if current == nil {
		return nil, &backend.StatusError{Status: http.StatusUnauthorized, Message: "not signed in"}
	}
	var resp authResponse
	err := c.send(c.httpClient.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refreshToken": current.RefreshToken}), http.MethodPost, "/api/auth/refresh", &resp)
	if err != nil {
		return nil, err
	}
	session := resp.Session
	session.User = resp.User
	c.setSession(&session)
	c.notify(models.EventTokenRefreshed)
	return &session, nil
}

// SignOut revokes the session remotely. Local state is only dropped once the
// backend confirmed, or when the session was already gone there.
func (c *Client) SignOut(ctx context.Context) error {
	if c.currentSession() == nil {
		return nil
	}
	err := c.call(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
	if err != nil && !isUnauthorized(err) {
		return err
	}
	c.setSession(nil)
	c.notify(models.EventSignedOut)
	return nil
}

// CurrentIdentity resolves the stored session. An expired access token is
// renewed once; a revoked session is forgotten and reported as no identity.
func (c *Client) CurrentIdentity(ctx context.Context) (*backend.Identity, error) {
	if c.currentSession() == nil {
		return nil, nil
	}
	identity, err := c.fetchIdentity(ctx)
	if err == nil {
		return identity, nil
	}
	if !isUnauthorized(err) {
		return nil, err
	}
	if _, refreshErr := c.Refresh(ctx); refreshErr != nil {
		if !isUnauthorized(refreshErr) {
			return nil, refreshErr
		}
		c.setSession(nil)
		c.notify(models.EventSignedOut)
		return nil, nil
	}
	return c.fetchIdentity(ctx)
}

func (c *Client) fetchIdentity(ctx context.Context) (*backend.Identity, error) {
	var resp struct {
		User backend.Identity `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/auth/user", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User.ID == "" {
		return nil, errors.New("backend returned an empty identity")
	}
	return &resp.User, nil
}
