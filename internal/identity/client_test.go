package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"docugen/api/internal/store"
)

type fakeProfiles struct {
	mu       sync.Mutex
	rows     map[string]store.Profile
	upserts  int
	failNext bool
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[string]store.Profile)}
}

func (f *fakeProfiles) UpsertProfile(_ context.Context, profile store.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return store.ErrNotFound
	}
	f.rows[profile.ID] = profile
	f.upserts++
	return nil
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (store.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.rows[userID]
	if !ok {
		return store.Profile{}, store.ErrNotFound
	}
	return profile, nil
}

// fakeProvider stands in for the hosted identity service.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "missing apikey"})
			return
		}
		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)
			if creds["password"] != "correct-horse" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "at-1",
				"refresh_token": "rt-1",
				"expires_in":    3600,
				"user": map[string]interface{}{
					"id":    "u1",
					"email": "ada@example.com",
					"user_metadata": map[string]string{
						"full_name": "Ada Lovelace",
					},
				},
			})
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "at-2",
				"refresh_token": "rt-2",
				"expires_in":    3600,
				"user": map[string]interface{}{
					"id":    "u1",
					"email": "ada@example.com",
				},
			})
		case r.URL.Path == "/auth/v1/user" && r.Method == http.MethodGet:
			if r.Header.Get("Authorization") != "Bearer at-1" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"msg": "invalid token"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":    "u1",
				"email": "ada@example.com",
			})
		case r.URL.Path == "/auth/v1/signup", r.URL.Path == "/auth/v1/recover", r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, profiles ProfileStore) *Client {
	srv := fakeProvider(t)
	return NewClient(srv.URL, "anon-key", profiles, nil, zerolog.Nop())
}

func TestSignInUpsertsProfile(t *testing.T) {
	profiles := newFakeProfiles()
	c := newTestClient(t, profiles)

	session, err := c.SignIn(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if session.AccessToken != "at-1" || session.RefreshToken != "rt-1" {
		t.Errorf("unexpected tokens: %+v", session)
	}
	if session.User.Name != "Ada Lovelace" {
		t.Errorf("user name = %q, want %q", session.User.Name, "Ada Lovelace")
	}

	profile, err := profiles.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile not upserted: %v", err)
	}
	if profile.ID != session.User.ID {
		t.Errorf("profile id = %q, want %q", profile.ID, session.User.ID)
	}
	if profile.FullName != "Ada Lovelace" || profile.Email != "ada@example.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	c := newTestClient(t, newFakeProfiles())

	_, err := c.SignIn(context.Background(), "ada@example.com", "wrong")
	var authError *AuthError
	if !errors.As(err, &authError) {
		t.Fatalf("SignIn() error = %T, want *AuthError", err)
	}
	if authError.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", authError.Status)
	}
	if authError.Message != "Invalid login credentials" {
		t.Errorf("message = %q", authError.Message)
	}
}

func TestSignInSurvivesProfileOutage(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.failNext = true
	c := newTestClient(t, profiles)

	session, err := c.SignIn(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn() should swallow profile failures, got %v", err)
	}
	if session.User.ID != "u1" {
		t.Errorf("user id = %q, want u1", session.User.ID)
	}
}

func TestMapUserNameFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		user     gotrueUser
		expected string
	}{
		{"full name wins", gotrueUser{ID: "u", Email: "e@x.com"}, "e@x.com"},
		{"literal default", gotrueUser{ID: "u"}, "User"},
	}
	full := gotrueUser{ID: "u", Email: "e@x.com"}
	full.UserMetadata.FullName = "Full Name"
	full.UserMetadata.Name = "Short"
	tests = append(tests, struct {
		name     string
		user     gotrueUser
		expected string
	}{"full_name over name", full, "Full Name"})

	short := gotrueUser{ID: "u", Email: "e@x.com"}
	short.UserMetadata.Name = "Short"
	tests = append(tests, struct {
		name     string
		user     gotrueUser
		expected string
	}{"name over email", short, "Short"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapUser(tt.user).Name; got != tt.expected {
				t.Errorf("mapUser().Name = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	profiles := newFakeProfiles()
	c := newTestClient(t, profiles)

	// Unknown token resolves to no user, not an error.
	user, err := c.CurrentUser(context.Background(), "bogus")
	if err != nil {
		t.Fatalf("CurrentUser(bogus) error = %v", err)
	}
	if user != nil {
		t.Errorf("CurrentUser(bogus) = %+v, want nil", user)
	}

	// Empty token short-circuits without a provider call.
	user, err = c.CurrentUser(context.Background(), "")
	if err != nil || user != nil {
		t.Errorf("CurrentUser(\"\") = %+v, %v; want nil, nil", user, err)
	}

	// A valid token resolves and is enriched from the profile row.
	profiles.rows["u1"] = store.Profile{ID: "u1", Email: "ada@example.com", FullName: "Countess Ada"}
	user, err = c.CurrentUser(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("CurrentUser(at-1) error = %v", err)
	}
	if user == nil || user.Name != "Countess Ada" {
		t.Errorf("CurrentUser(at-1) = %+v, want enriched name", user)
	}
}

func TestRefreshSessionDefaultName(t *testing.T) {
	c := newTestClient(t, newFakeProfiles())

	session, err := c.RefreshSession(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("RefreshSession() error = %v", err)
	}
	if session.AccessToken != "at-2" {
		t.Errorf("access token = %q, want at-2", session.AccessToken)
	}
	// No metadata name in the refresh payload, so email is the display name.
	if session.User.Name != "ada@example.com" {
		t.Errorf("user name = %q, want email fallback", session.User.Name)
	}
}

func TestOnAuthStateChange(t *testing.T) {
	c := newTestClient(t, newFakeProfiles())

	var mu sync.Mutex
	var seen []EventType
	unsubscribe := c.OnAuthStateChange(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	if _, err := c.SignIn(context.Background(), "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if err := c.SignOut(context.Background(), "at-1"); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	unsubscribe()
	unsubscribe() // second call is a no-op
	if _, err := c.SignIn(context.Background(), "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []EventType{EventSignedIn, EventSignedOut}
	if len(seen) != len(want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestSignOutAlwaysSucceedsLocally(t *testing.T) {
	// Point at a dead server so the remote revoke fails.
	c := NewClient("http://127.0.0.1:1", "anon-key", nil, nil, zerolog.Nop())

	var fired bool
	defer c.OnAuthStateChange(func(e Event) {
		if e.Type == EventSignedOut {
			fired = true
		}
	})()

	if err := c.SignOut(context.Background(), "at-1"); err != nil {
		t.Fatalf("SignOut() error = %v, want nil", err)
	}
	if !fired {
		t.Error("signed-out event did not fire")
	}
}

func TestOAuthAuthorizeURL(t *testing.T) {
	c := NewClient("https://id.example.com", "anon-key", nil, nil, zerolog.Nop())

	got := c.OAuthAuthorizeURL("google", "")
	want := "https://id.example.com/auth/v1/authorize?provider=google"
	if got != want {
		t.Errorf("OAuthAuthorizeURL() = %q, want %q", got, want)
	}

	got = c.OAuthAuthorizeURL("github", "https://app.example.com")
	if got != "https://id.example.com/auth/v1/authorize?provider=github&redirect_to=https://app.example.com" {
		t.Errorf("OAuthAuthorizeURL() = %q", got)
	}
}

func TestSessionFromCallback(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected *CallbackSession
	}{
		{
			name:     "recovery fragment",
			url:      "https://app.example.com/#access_token=at&refresh_token=rt&type=recovery",
			expected: &CallbackSession{AccessToken: "at", RefreshToken: "rt", Recovery: true},
		},
		{
			name:     "oauth fragment",
			url:      "https://app.example.com/#access_token=at&refresh_token=rt&type=bearer",
			expected: &CallbackSession{AccessToken: "at", RefreshToken: "rt"},
		},
		{
			name:     "query string form",
			url:      "https://app.example.com/?access_token=at&type=recovery",
			expected: &CallbackSession{AccessToken: "at", Recovery: true},
		},
		{
			name:     "plain navigation",
			url:      "https://app.example.com/projects",
			expected: nil,
		},
		{
			name:     "fragment without token",
			url:      "https://app.example.com/#section-2",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SessionFromCallback(tt.url)
			if tt.expected == nil {
				if got != nil {
					t.Fatalf("SessionFromCallback() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("SessionFromCallback() = nil, want session")
			}
			if *got != *tt.expected {
				t.Errorf("SessionFromCallback() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}
