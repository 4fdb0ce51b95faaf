package identity

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/navid-fn/coinview/internal/models"
)

const profileColumns = "username,full_name,avatar_url,website"

type profileRow struct {
	ID string `json:"id"`
	models.Profile
	UpdatedAt time.Time `json:"updated_at"`
}

// GetProfile selects the profile row for userID. A missing row is ErrNotFound.
func (c *Client) GetProfile(ctx context.Context, accessToken, userID string) (*models.Profile, error) {
	q := url.Values{}
	q.Set("select", profileColumns)
	q.Set("id", "eq."+userID)

	var profile models.Profile
	err := c.do(ctx, request{
		method:      http.MethodGet,
		path:        restPath + "/" + c.profilesTable + "?" + q.Encode(),
		accessToken: accessToken,
		headers:     map[string]string{"Accept": "application/vnd.pgrst.object+json"},
	}, &profile)
	if IsStatus(err, http.StatusNotAcceptable) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile writes the whole row for userID, inserting or replacing it.
func (c *Client) UpsertProfile(ctx context.Context, accessToken, userID string, profile models.Profile) error {
	body, err := jsonBody(profileRow{ID: userID, Profile: profile, UpdatedAt: c.now().UTC()})
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        restPath + "/" + c.profilesTable,
		accessToken: accessToken,
		body:        body,
		headers:     map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"},
	}, nil)
}
