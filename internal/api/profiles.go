package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"postboard/internal/models"
)

// GetProfile fetches a public profile by name.
func (c *Client) GetProfile(ctx context.Context, token, name string) (*models.Profile, error) {
	env, err := c.do(ctx, request{
		operation: "get_profile",
		method:    http.MethodGet,
		path:      "/social/profiles/" + url.PathEscape(name),
		token:     token,
		fallback:  "Failed to fetch profile",
	})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, models.NewNotFoundError("Profile", name)
		}
		return nil, err
	}

	profile := &models.Profile{}
	if err := decodeData("get_profile", env, profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, models.NewMalformedResponseError("get_profile", "profile without name")
	}
	return profile, nil
}

func decodeRaw(operation string, raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return models.NewMalformedResponseError(operation, err.Error())
	}
	return nil
}

// statusOf returns the upstream status carried by err, or 0.
func statusOf(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeRequestFailed {
		return appErr.Status
	}
	return 0
}
