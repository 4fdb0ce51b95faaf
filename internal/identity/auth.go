package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/navid-fn/coinview/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResult carries the new user. Session is nil while email confirmation is pending.
type SignUpResult struct {
	User    *models.User
	Session *models.Session
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	body, err := jsonBody(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var session models.Session
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/token?grant_type=password",
		body:   body,
	}, &session)
	if err != nil {
		return nil, err
	}
	return c.complete(&session)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	body, err := jsonBody(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/signup",
		body:   body,
	}, &raw)
	if err != nil {
		return nil, err
	}

	// With autoconfirm the response is a session; otherwise it is the bare user.
	var session models.Session
	if err := json.Unmarshal(raw, &session); err == nil && session.AccessToken != "" {
		s, err := c.complete(&session)
		if err != nil {
			return nil, err
		}
		return &SignUpResult{User: s.User, Session: s}, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return nil, errors.New("identity: sign-up response has neither session nor user")
	}
	return &SignUpResult{User: &user}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        authPath + "/logout",
		accessToken: accessToken,
	}, nil)
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	body, err := jsonBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	var session models.Session
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "/token?grant_type=refresh_token",
		body:   body,
	}, &session)
	if err != nil {
		return nil, err
	}
	return c.complete(&session)
}

// Health pings the auth service.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: authPath + "/health"}, nil)
}

func (c *Client) complete(s *models.Session) (*models.Session, error) {
	if s.AccessToken == "" {
		return nil, errors.New("identity: response has no access token")
	}
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Unix() + int64(s.ExpiresIn)
	}
	return s, nil
}
