package api

import (
	"context"
	"net/http"

	"postboard/internal/models"
)

// LoginResult is what a successful login yields: the bearer credential and
// the user record kept next to it.
type LoginResult struct {
	AccessToken string
	User        models.SessionUser
}

type loginData struct {
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Avatar      *models.Media `json:"avatar"`
	AccessToken string        `json:"accessToken"`
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	env, err := c.do(ctx, request{
		operation: "login",
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"email": email, "password": password},
		fallback:  "Login failed",
	})
	if err != nil {
		return nil, err
	}

	var data loginData
	if err := decodeData("login", env, &data); err != nil {
		return nil, err
	}
	if data.AccessToken == "" || data.Name == "" {
		return nil, models.NewMalformedResponseError("login", "missing accessToken or name")
	}

	return &LoginResult{
		AccessToken: data.AccessToken,
		User: models.SessionUser{
			Name:   data.Name,
			Email:  data.Email,
			Avatar: data.Avatar,
		},
	}, nil
}

// Register creates a profile. The caller logs in separately afterwards.
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*models.Profile, error) {
	env, err := c.do(ctx, request{
		operation: "register",
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      in,
		fallback:  "Registration failed",
	})
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{}
	if err := decodeData("register", env, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
