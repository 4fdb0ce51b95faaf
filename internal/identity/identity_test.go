package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/logging"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anonKey = "anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(configs.IdentityConfig{BaseURL: srv.URL + "/", AnonKey: anonKey}, logging.Discard())
	c.now = func() time.Time { return time.Unix(1000, 0) }
	return c
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, anonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+anonKey, r.Header.Get("Authorization"))

		var creds credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "a@b.c", creds.Email)

		w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600,"refresh_token":"rt","user":{"id":"u1","email":"a@b.c"}}`))
	})

	s, err := c.SignInWithPassword(context.Background(), "a@b.c", "secret")

	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, int64(4600), s.ExpiresAt)
	require.NotNil(t, s.User)
	assert.Equal(t, "u1", s.User.ID)
}

func TestSignInInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignInWithPassword(context.Background(), "a@b.c", "bad")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestSignUpShapes(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		wantSession bool
	}{
		{
			name:        "Autoconfirm returns session",
			body:        `{"access_token":"at","refresh_token":"rt","expires_at":5000,"user":{"id":"u1","email":"a@b.c"}}`,
			wantSession: true,
		},
		{
			name: "Confirmation pending returns user",
			body: `{"id":"u1","email":"a@b.c","role":"authenticated"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/v1/signup", r.URL.Path)
				w.Write([]byte(tc.body))
			})

			res, err := c.SignUp(context.Background(), "a@b.c", "secret")

			require.NoError(t, err)
			require.NotNil(t, res.User)
			assert.Equal(t, "u1", res.User.ID)
			assert.Equal(t, tc.wantSession, res.Session != nil)
		})
	}
}

func TestSignOutSendsUserToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.SignOut(context.Background(), "user-token"))
}

func TestRefreshSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"refresh_token":"rt"}`, string(body))
		w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","expires_at":9999}`))
	})

	s, err := c.RefreshSession(context.Background(), "rt")

	require.NoError(t, err)
	assert.Equal(t, "at2", s.AccessToken)
	assert.Equal(t, int64(9999), s.ExpiresAt)
}

func TestGetProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("id"))
		assert.Equal(t, profileColumns, r.URL.Query().Get("select"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Write([]byte(`{"username":"sato","full_name":"Satoshi N","avatar_url":"1.png","website":null}`))
	})

	p, err := c.GetProfile(context.Background(), "at", "u1")

	require.NoError(t, err)
	assert.Equal(t, &models.Profile{Username: "sato", FullName: "Satoshi N", AvatarPath: "1.png"}, p)
}

func TestGetProfileMissingRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	_, err := c.GetProfile(context.Background(), "at", "u1")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		var row map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "u1", row["id"])
		assert.Equal(t, "sato", row["username"])
		assert.Equal(t, "Satoshi", row["full_name"])
		assert.Equal(t, "2.png", row["avatar_url"])
		assert.Equal(t, "1970-01-01T00:16:40Z", row["updated_at"])
		w.WriteHeader(http.StatusCreated)
	})

	err := c.UpsertProfile(context.Background(), "at", "u1", models.Profile{Username: "sato", FullName: "Satoshi", AvatarPath: "2.png"})

	assert.NoError(t, err)
}

func TestUpsertProfileError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"42501","message":"permission denied"}`))
	})

	err := c.UpsertProfile(context.Background(), "at", "u1", models.Profile{})

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestUploadAndPublicURL(t *testing.T) {
	var uploaded string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/avatar/1700000000000.png", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		uploaded = string(body)
		w.Write([]byte(`{"Key":"avatar/1700000000000.png"}`))
	})

	err := c.Upload(context.Background(), "at", "1700000000000.png", "image/png", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "png-bytes", uploaded)
	assert.True(t, strings.HasSuffix(c.PublicURL("1700000000000.png"), "/storage/v1/object/public/avatar/1700000000000.png"))
}

func TestParseAPIErrorFallbacks(t *testing.T) {
	assert.Equal(t, "Bad Gateway", parseAPIError(http.StatusBadGateway, nil).Message)
	assert.Equal(t, "upstream exploded", parseAPIError(http.StatusBadGateway, []byte("upstream exploded")).Message)

	apiErr := parseAPIError(http.StatusUnprocessableEntity, []byte(`{"code":422,"msg":"Password should be at least 6 characters","error_code":"weak_password"}`))
	assert.Equal(t, "weak_password", apiErr.Code)
	assert.Equal(t, "Password should be at least 6 characters", apiErr.Message)
}
