// Package account talks to the hosted account backend: password auth under
// /auth/v1 and the profiles, achievements and stories tables under /rest/v1.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/echorealms/internal/domain"
	"go.uber.org/zap"
)

// APIError is a failure reported by the backend. Its message is shown to
// the user as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Session identifies a signed-in account
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Username        string         `json:"username"`
	AvatarEmoji     string         `json:"avatar_emoji"`
	Bio             string         `json:"bio"`
	PreferredGenres []domain.Genre `json:"preferred_genres"`
	PrivacySetting  string         `json:"privacy_setting"`
}

// Client calls the account backend
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// New creates a Client for the backend at baseURL using its public API key
func New(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("account backend URL not set (SUPABASE_URL)")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("account backend key not set (SUPABASE_ANON_KEY)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// SignUp registers a new account. username and avatar land in the user
// metadata the backend copies into the profile row.
func (c *Client) SignUp(ctx context.Context, email, password, username, avatarEmoji string) error {
	if avatarEmoji == "" {
		avatarEmoji = domain.DefaultAvatar
	}
	if !domain.ValidAvatar(avatarEmoji) {
		return fmt.Errorf("unknown avatar emoji %q", avatarEmoji)
	}
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"username":     username,
			"avatar_emoji": avatarEmoji,
		},
	}
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body, nil, nil)
	return err
}

// SignIn exchanges email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	q := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, body, nil, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("sign in: no access token in response")
	}
	return &Session{AccessToken: resp.AccessToken, UserID: resp.User.ID, Email: resp.User.Email}, nil
}

// GetProfile reads the profile row of the signed-in account
func (c *Client) GetProfile(ctx context.Context, s *Session) (*domain.Profile, error) {
	var rows []domain.Profile
	q := url.Values{"id": {"eq." + s.UserID}, "select": {"*"}}
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, s, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &APIError{Status: http.StatusNotFound, Message: "profile not found"}
	}
	return &rows[0], nil
}

// UpdateProfile writes the editable profile fields
func (c *Client) UpdateProfile(ctx context.Context, s *Session, u ProfileUpdate) error {
	if u.AvatarEmoji != "" && !domain.ValidAvatar(u.AvatarEmoji) {
		return fmt.Errorf("unknown avatar emoji %q", u.AvatarEmoji)
	}
	for _, g := range u.PreferredGenres {
		if !g.Valid() {
			return fmt.Errorf("unknown genre %q", g)
		}
	}
	if u.PreferredGenres == nil {
		u.PreferredGenres = []domain.Genre{}
	}
	q := url.Values{"id": {"eq." + s.UserID}}
	_, err := c.do(ctx, http.MethodPatch, "/rest/v1/profiles", q, u, s, nil)
	return err
}

// ListAchievements returns the account's badges, most recent first
func (c *Client) ListAchievements(ctx context.Context, s *Session) ([]domain.Achievement, error) {
	achievements := []domain.Achievement{}
	q := url.Values{
		"user_id": {"eq." + s.UserID},
		"select":  {"*"},
		"order":   {"achieved_on.desc"},
	}
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/achievements", q, nil, s, &achievements); err != nil {
		return nil, err
	}
	return achievements, nil
}

// CountStories returns how many stories the account has stored remotely
func (c *Client) CountStories(ctx context.Context, s *Session) (int, error) {
	q := url.Values{"user_id": {"eq." + s.UserID}, "select": {"*"}}
	h, err := c.do(ctx, http.MethodHead, "/rest/v1/stories", q, nil, s, nil)
	if err != nil {
		return 0, err
	}
	return parseContentRange(h.Get("Content-Range"))
}

// parseContentRange reads the total out of "0-9/42" or "*/0"
func parseContentRange(v string) (int, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return 0, fmt.Errorf("malformed content range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content range %q has no total", v)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed content range %q: %w", v, err)
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in any, s *Session, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	switch method {
	case http.MethodHead:
		req.Header.Set("Prefer", "count=exact")
	case http.MethodPatch:
		req.Header.Set("Prefer", "return=minimal")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("account backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return resp.Header, nil
}

// errorMessage pulls the human readable message out of an error body.
// Auth and table endpoints use different field names.
func errorMessage(status int, body []byte) string {
	var e struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fmt.Sprintf("request failed with status %d", status)
}
