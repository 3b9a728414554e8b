// Package credential owns the single token record of the process: it hands out fresh
// access tokens, refreshes stale ones and records new grants.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/jr0d/lifeops/pkg/lifeops/server/storage"
)

const DefaultRefreshTimeout = 10 * time.Second

// ErrAuthorizationFailed wraps every failure to turn an authorization code into a usable
// credential. Codes are single-use, so callers restart the consent flow instead of retrying.
var ErrAuthorizationFailed = errors.New("authorization failed")

type Manager struct {
	OAuth2Config *oauth2.Config
	Storage      storage.TokenStore
	Identity     IdentityResolver
	Log          logrus.FieldLogger

	// RefreshTimeout bounds a single refresh exchange.
	RefreshTimeout time.Duration
	// HTTPClient, when set, is used for every token endpoint call.
	HTTPClient *http.Client
	// Now is overridden in tests.
	Now func() time.Time

	// mu is held across the staleness check, the refresh and the persist.
	mu     sync.Mutex
	record *storage.TokenRecord
}

// NewManager rehydrates the in-memory record from store.
func NewManager(cfg *oauth2.Config, store storage.TokenStore, identity IdentityResolver, logger logrus.FieldLogger) (*Manager, error) {
	if cfg == nil || store == nil || identity == nil {
		return nil, errors.New("credential manager requires an oauth2 config, a token store and an identity resolver")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	record, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading token record: %w", err)
	}
	m := &Manager{
		OAuth2Config:   cfg,
		Storage:        store,
		Identity:       identity,
		Log:            logger,
		RefreshTimeout: DefaultRefreshTimeout,
		record:         record,
	}
	if record != nil {
		logger.WithField("email", record.Email).Info("loaded stored credential")
	}
	return m, nil
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) httpContext(ctx context.Context) context.Context {
	if m.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
}

// GetCredential returns a credential whose expiry is strictly in the future, refreshing a
// stale one at most once. Any failure on the way degrades to Unauthenticated.
func (m *Manager) GetCredential(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record.Empty() {
		return Result{State: Unauthenticated}
	}

	// A record without an access token is stale whatever its expiry says.
	if expiry, ok := m.record.ExpiryTime(); ok && expiry.After(m.now()) && m.record.AccessToken != "" {
		return authenticated(m.record, expiry)
	}

	log := m.Log.WithField("email", m.record.Email)
	if m.record.RefreshToken == "" {
		log.Info("stored credential is stale and has no refresh token")
		return Result{State: Unauthenticated}
	}

	token, err := m.refresh(ctx, m.record.RefreshToken)
	if err != nil {
		log.WithError(err).Warn("token refresh failed")
		return Result{State: Unauthenticated}
	}

	next := m.record.Clone()
	next.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		next.RefreshToken = token.RefreshToken
	}
	next.SetExpiry(token.Expiry)
	next.UpdatedAt = storage.FormatTime(m.now())

	if err = m.Storage.Save(next); err != nil {
		log.WithError(err).Error("could not persist refreshed credential")
		return Result{State: Unauthenticated}
	}
	m.record = next
	log.WithField("expiry", next.Expiry).Debug("refreshed access token")

	expiry, _ := next.ExpiryTime()
	return authenticated(next, expiry)
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if m.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.RefreshTimeout)
		defer cancel()
	}
	// An empty access token forces the token source to run the refresh grant.
	token, err := m.OAuth2Config.TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("token endpoint returned an empty access token")
	}
	return token, nil
}

// CompleteAuthorization exchanges code for tokens, resolves the identity they belong to and
// replaces the stored record. redirectURI must be the one used to start the flow.
func (m *Manager) CompleteAuthorization(ctx context.Context, code, redirectURI string) error {
	cfg := *m.OAuth2Config
	cfg.RedirectURL = redirectURI
	ctx = m.httpContext(ctx)

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: error exchanging code for token: %w", ErrAuthorizationFailed, err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("%w: token response has no refresh token", ErrAuthorizationFailed)
	}

	email, err := m.Identity.Email(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
	}

	record := &storage.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Email:        email,
		UpdatedAt:    storage.FormatTime(m.now()),
	}
	record.SetExpiry(token.Expiry)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err = m.Storage.Save(record); err != nil {
		return fmt.Errorf("error saving token record: %w", err)
	}
	m.record = record
	m.Log.WithField("email", email).Info("authorization complete")
	return nil
}

// ClearCredential forgets the record. When the empty state cannot be persisted the in-memory
// record is kept, so the process keeps agreeing with what a restart would load.
func (m *Manager) ClearCredential() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Storage.Clear(); err != nil {
		return fmt.Errorf("error clearing token record, still logged in: %w", err)
	}
	m.record = nil
	m.Log.Info("credential cleared")
	return nil
}

// InitiateAuthorization builds the consent URL. Offline access with forced consent makes the
// provider issue a refresh token on every grant.
func (m *Manager) InitiateAuthorization(state, redirectURI string) string {
	cfg := *m.OAuth2Config
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func authenticated(record *storage.TokenRecord, expiry time.Time) Result {
	return Result{
		State: Authenticated,
		Token: &oauth2.Token{
			AccessToken:  record.AccessToken,
			RefreshToken: record.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
		Email:  record.Email,
		Expiry: expiry,
	}
}
