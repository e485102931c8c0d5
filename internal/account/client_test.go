package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pbaille/echorealms/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", "anon-key", 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

var session = &Session{AccessToken: "tok", UserID: "user-1", Email: "a@b.c"}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New("", "key", time.Second, nil)
	assert.Error(t, err)
	_, err = New("http://x", "", time.Second, nil)
	assert.Error(t, err)
}

func TestSignUp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body struct {
			Email    string            `json:"email"`
			Password string            `json:"password"`
			Data     map[string]string `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body.Email)
		assert.Equal(t, "secret", body.Password)
		assert.Equal(t, "wanderer", body.Data["username"])
		assert.Equal(t, domain.DefaultAvatar, body.Data["avatar_emoji"])

		w.Write([]byte(`{"id":"user-1"}`))
	})

	require.NoError(t, c.SignUp(context.Background(), "a@b.c", "secret", "wanderer", ""))
}

func TestSignUpRejectsUnknownAvatar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called")
	})

	err := c.SignUp(context.Background(), "a@b.c", "secret", "wanderer", "🐙")
	assert.ErrorContains(t, err, "avatar")
}

func TestSignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		w.Write([]byte(`{"access_token":"tok","user":{"id":"user-1","email":"a@b.c"}}`))
	})

	s, err := c.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, session, s)
}

func TestSignInErrorIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignIn(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestGetProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[{
			"id":"user-1","username":"wanderer","avatar_emoji":"🌙","bio":null,
			"preferred_genres":["fantasy","mystery"],"privacy_setting":"private",
			"created_at":"2024-03-09T10:30:00+00:00","updated_at":"2024-03-10T08:00:00+00:00"
		}]`))
	})

	p, err := c.GetProfile(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "wanderer", p.Username)
	assert.Equal(t, "🌙", p.AvatarEmoji)
	assert.Equal(t, "", p.Bio)
	assert.Equal(t, []domain.Genre{"fantasy", "mystery"}, p.PreferredGenres)
	assert.Equal(t, 2024, p.CreatedAt.Year())
}

func TestGetProfileMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.GetProfile(context.Background(), session)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestUpdateProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("id"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wanderer", body["username"])
		assert.Equal(t, []any{}, body["preferred_genres"])
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpdateProfile(context.Background(), session, ProfileUpdate{Username: "wanderer"})
	require.NoError(t, err)
}

func TestUpdateProfileRejectsUnknownGenre(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called")
	})

	err := c.UpdateProfile(context.Background(), session, ProfileUpdate{
		PreferredGenres: []domain.Genre{"fantasy", "polka"},
	})
	assert.ErrorContains(t, err, "polka")
}

func TestUpdateProfileRejectsUnknownAvatar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called")
	})

	err := c.UpdateProfile(context.Background(), session, ProfileUpdate{AvatarEmoji: "X"})
	assert.ErrorContains(t, err, `"X"`)
}

func TestListAchievements(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/achievements", r.URL.Path)
		assert.Equal(t, "achieved_on.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		w.Write([]byte(`[
			{"id":"2","user_id":"user-1","badge_name":"Storyteller","badge_emoji":"📖","badge_description":null,"achieved_on":"2024-03-10T00:00:00Z"},
			{"id":"1","user_id":"user-1","badge_name":"First Echo","badge_emoji":"✨","badge_description":"Wrote a first story","achieved_on":"2024-03-01T00:00:00Z"}
		]`))
	})

	got, err := c.ListAchievements(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Storyteller", got[0].BadgeName)
	assert.Equal(t, "Wrote a first story", got[1].BadgeDescription)
}

func TestCountStories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-9/42")
	})

	n, err := c.CountStories(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestParseContentRange(t *testing.T) {
	n, err := parseContentRange("*/0")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = parseContentRange("")
	assert.Error(t, err)
	_, err = parseContentRange("0-9/*")
	assert.Error(t, err)
	_, err = parseContentRange("0-9/abc")
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "JWT expired", errorMessage(401, []byte(`{"message":"JWT expired","code":"PGRST301"}`)))
	assert.Equal(t, "User already registered", errorMessage(422, []byte(`{"code":422,"msg":"User already registered"}`)))
	assert.Equal(t, "Bad Gateway", errorMessage(502, []byte("Bad Gateway")))
	assert.Equal(t, "request failed with status 500", errorMessage(500, nil))
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	_, err := LoadSession(path)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, SaveSession(path, session))
	got, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, ClearSession(path))
	require.NoError(t, ClearSession(path))
	_, err = LoadSession(path)
	assert.ErrorIs(t, err, ErrNoSession)
}
