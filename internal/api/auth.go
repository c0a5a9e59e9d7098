package api

import (
	"context"
	"errors"
	"fmt"

	"findash/internal/core"
	"findash/internal/log"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Login authenticates and makes the returned token the session token.
func (c *Client) Login(ctx context.Context, email, password string) (core.AuthResponse, error) {
	return c.authenticate(ctx, call{
		op:       log.OpLogin,
		path:     "/auth/login",
		body:     credentials{Email: email, Password: password},
		fallback: "Login failed",
	})
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password, name string) (core.AuthResponse, error) {
	return c.authenticate(ctx, call{
		op:       log.OpRegister,
		path:     "/auth/register",
		body:     credentials{Email: email, Password: password, Name: name},
		fallback: "Registration failed",
	})
}

func (c *Client) authenticate(ctx context.Context, cl call) (core.AuthResponse, error) {
	var out core.AuthResponse
	if err := c.postJSON(ctx, cl, &out); err != nil {
		return core.AuthResponse{}, err
	}
	if out.Token == "" {
		return core.AuthResponse{}, &Error{Op: cl.op, Kind: KindValidation, Message: cl.fallback,
			Err: errors.New("response carries no token")}
	}
	if err := c.session.Set(ctx, out.Token); err != nil {
		return core.AuthResponse{}, &Error{Op: cl.op, Kind: KindNetwork, Message: cl.fallback,
			Err: fmt.Errorf("persist token: %w", err)}
	}
	c.logger.InfoContext(ctx, "Signed in", log.FieldOperation, cl.op, "user_id", out.User.ID)
	return out, nil
}

// Verify asks the backend who the current token belongs to.
func (c *Client) Verify(ctx context.Context) (core.User, error) {
	var out struct {
		User core.User `json:"user"`
	}
	err := c.getJSON(ctx, call{
		op:       log.OpVerify,
		path:     "/auth/verify",
		fallback: "Token verification failed",
	}, &out)
	return out.User, err
}

// Logout tells the backend and drops the local token. The token is cleared
// even when the remote call fails; that failure is still returned.
func (c *Client) Logout(ctx context.Context) error {
	remoteErr := c.postJSON(ctx, call{
		op:       log.OpLogout,
		path:     "/auth/logout",
		fallback: "Logout failed",
	}, nil)

	if err := c.session.Clear(ctx); err != nil && remoteErr == nil {
		return &Error{Op: log.OpLogout, Kind: KindNetwork, Message: "Logout failed", Err: err}
	}
	if remoteErr != nil {
		c.logger.WarnContext(ctx, "Remote logout failed, local session cleared", log.FieldError, remoteErr)
	}
	return remoteErr
}
