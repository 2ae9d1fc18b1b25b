package identity

import (
	"net/url"
	"strings"
)

// CallbackSession is what the provider's redirect flow deposits in the page
// location: tokens live in the URL fragment, with type=recovery marking a
// password-recovery link.
type CallbackSession struct {
	AccessToken  string
	RefreshToken string
	Recovery     bool
}

// SessionFromCallback inspects a redirect URL for a recovery or OAuth
// callback fragment. It must run before other session queries on a
// redirected request, since the tokens exist nowhere else. Returns nil when
// the URL carries no session.
func SessionFromCallback(rawURL string) *CallbackSession {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	// The provider uses the fragment; fall back to the query string for
	// clients that rewrite one into the other.
	values, err := url.ParseQuery(strings.TrimPrefix(parsed.Fragment, "#"))
	if err != nil || values.Get("access_token") == "" {
		values = parsed.Query()
	}

	accessToken := values.Get("access_token")
	if accessToken == "" {
		return nil
	}
	return &CallbackSession{
		AccessToken:  accessToken,
		RefreshToken: values.Get("refresh_token"),
		Recovery:     values.Get("type") == "recovery",
	}
}
