package credential

import (
	"time"

	"golang.org/x/oauth2"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Result is what GetCredential hands to callers. Token is nil unless State is Authenticated.
// Expiry is zero when the provider never reported one.
type Result struct {
	State  State
	Token  *oauth2.Token
	Email  string
	Expiry time.Time
}

func (r Result) Authenticated() bool {
	return r.State == Authenticated && r.Token != nil
}

// TokenSource serves the result's access token as-is. It must not be used past Expiry.
func (r Result) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(r.Token)
}
