// Package identity wraps the external GoTrue-style identity provider and
// normalizes its user records into the application's user shape. A
// denormalized profile row is kept in sync on every sign-in and auth-state
// change so the display name can later diverge from provider metadata.
package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"docugen/api/internal/model"
	"docugen/api/internal/store"
)

// ProfileStore is the slice of the data store the adapter needs for the
// denormalized profile row.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, profile store.Profile) error
	GetProfile(ctx context.Context, userID string) (store.Profile, error)
}

// UserCache is an optional token->user cache in front of the provider.
// Lookups fall through on miss; cache failures are silent.
type UserCache interface {
	GetUser(ctx context.Context, accessToken string) (*model.User, bool)
	SetUser(ctx context.Context, accessToken string, user model.User)
	DeleteUser(ctx context.Context, accessToken string)
}

// Session carries the provider tokens plus the normalized user.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         model.User
}

type Client struct {
	http     *resty.Client
	anonKey  string
	profiles ProfileStore
	cache    UserCache
	log      zerolog.Logger

	events *broadcaster
}

// provider wire shapes

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	User         gotrueUser `json:"user"`
}

type gotrueError struct {
	Message   string `json:"msg"`
	ErrorDesc string `json:"error_description"`
}

func (e gotrueError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorDesc
}

func NewClient(baseURL, anonKey string, profiles ProfileStore, cache UserCache, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("apikey", anonKey).
		SetTimeout(30 * time.Second)
	return &Client{
		http:     httpClient,
		anonKey:  anonKey,
		profiles: profiles,
		cache:    cache,
		log:      log,
		events:   newBroadcaster(),
	}
}

// mapUser normalizes a provider user record: full name, then metadata name,
// then email, then the literal "User".
func mapUser(u gotrueUser) model.User {
	name := u.UserMetadata.FullName
	if name == "" {
		name = u.UserMetadata.Name
	}
	if name == "" {
		name = u.Email
	}
	if name == "" {
		name = "User"
	}
	return model.User{ID: u.ID, Name: name, Email: u.Email}
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	var apiErr gotrueError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetError(&apiErr).
		Post("/auth/v1/signup")
	if err != nil {
		return authErr("sign up", 0, "", err)
	}
	if resp.IsError() {
		return authErr("sign up", resp.StatusCode(), apiErr.text(), nil)
	}
	return nil
}

// SignIn exchanges credentials for a session. Invalid credentials, unknown
// email, and transport failures are indistinguishable here: all surface as
// AuthError. On success the profile row is upserted; a profile outage is
// logged and swallowed rather than failing the sign-in.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var body gotrueSession
	var apiErr gotrueError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/auth/v1/token")
	if err != nil {
		return Session{}, authErr("sign in", 0, "", err)
	}
	if resp.IsError() {
		return Session{}, authErr("sign in", resp.StatusCode(), apiErr.text(), nil)
	}

	user := mapUser(body.User)
	c.syncProfile(ctx, &user)
	session := Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresIn:    body.ExpiresIn,
		User:         user,
	}
	c.dispatch(ctx, Event{Type: EventSignedIn, User: &session.User})
	return session, nil
}

// RefreshSession trades a refresh token for a new session and notifies
// auth-state observers.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	var body gotrueSession
	var apiErr gotrueError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/auth/v1/token")
	if err != nil {
		return Session{}, authErr("refresh session", 0, "", err)
	}
	if resp.IsError() {
		return Session{}, authErr("refresh session", resp.StatusCode(), apiErr.text(), nil)
	}

	user := mapUser(body.User)
	c.syncProfile(ctx, &user)
	session := Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresIn:    body.ExpiresIn,
		User:         user,
	}
	c.dispatch(ctx, Event{Type: EventTokenRefreshed, User: &session.User})
	return session, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	var apiErr gotrueError
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetError(&apiErr)
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}
	resp, err := req.Post("/auth/v1/recover")
	if err != nil {
		return authErr("request password reset", 0, "", err)
	}
	if resp.IsError() {
		return authErr("request password reset", resp.StatusCode(), apiErr.text(), nil)
	}
	return nil
}

// OAuthAuthorizeURL returns the provider URL that initiates the
// redirect-based external sign-in. The initiating call yields no session;
// the flow completes via SessionFromCallback.
func (c *Client) OAuthAuthorizeURL(provider, redirectTo string) string {
	u := c.http.BaseURL + "/auth/v1/authorize?provider=" + provider
	if redirectTo != "" {
		u += "&redirect_to=" + redirectTo
	}
	return u
}

// SignOut revokes the session remotely when possible. It always succeeds
// locally: a remote failure is logged, the cached user is dropped, and the
// signed-out event still fires.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/auth/v1/logout")
	if err != nil {
		c.log.Warn().Err(err).Msg("remote sign-out failed, continuing locally")
	}
	if c.cache != nil && accessToken != "" {
		c.cache.DeleteUser(ctx, accessToken)
	}
	c.dispatch(ctx, Event{Type: EventSignedOut})
	return nil
}

// CurrentUser resolves the access token into a user, or nil when the token
// is missing or rejected. The result is enriched from the denormalized
// profile row, falling back silently to the provider-only shape.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, nil
	}
	if c.cache != nil {
		if user, ok := c.cache.GetUser(ctx, accessToken); ok {
			return user, nil
		}
	}

	var body gotrueUser
	var apiErr gotrueError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&body).
		SetError(&apiErr).
		Get("/auth/v1/user")
	if err != nil {
		return nil, authErr("current user", 0, "", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, nil
	}
	if resp.IsError() {
		return nil, authErr("current user", resp.StatusCode(), apiErr.text(), nil)
	}

	user := mapUser(body)
	c.enrichFromProfile(ctx, &user)
	if c.cache != nil {
		c.cache.SetUser(ctx, accessToken, user)
	}
	return &user, nil
}

// UpdatePasswordWithRecovery sets a new password using the short-lived
// recovery token from a password-reset link.
func (c *Client) UpdatePasswordWithRecovery(ctx context.Context, recoveryToken, newPassword string) error {
	var apiErr gotrueError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(recoveryToken).
		SetBody(map[string]string{"password": newPassword}).
		SetError(&apiErr).
		Put("/auth/v1/user")
	if err != nil {
		return authErr("update password", 0, "", err)
	}
	if resp.IsError() {
		return authErr("update password", resp.StatusCode(), apiErr.text(), nil)
	}
	return nil
}

// OnAuthStateChange registers a process-wide observer fired on every
// sign-in, sign-out, and token refresh. The returned unsubscribe func must
// be called exactly once on teardown or the registration leaks.
func (c *Client) OnAuthStateChange(cb func(Event)) func() {
	return c.events.subscribe(cb)
}

// dispatch runs the profile upsert+fetch side effect, then notifies
// observers with the enriched user.
func (c *Client) dispatch(ctx context.Context, event Event) {
	if event.User != nil {
		c.enrichFromProfile(ctx, event.User)
	}
	c.events.emit(event)
}

func (c *Client) syncProfile(ctx context.Context, user *model.User) {
	if c.profiles == nil || user == nil {
		return
	}
	err := c.profiles.UpsertProfile(ctx, store.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.Name,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.log.Warn().Err(err).Str("user", user.ID).Msg("profile upsert failed")
	}
}

func (c *Client) enrichFromProfile(ctx context.Context, user *model.User) {
	if c.profiles == nil || user == nil {
		return
	}
	profile, err := c.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return
	}
	if profile.FullName != "" {
		user.Name = profile.FullName
	}
	if profile.Email != "" {
		user.Email = profile.Email
	}
}
