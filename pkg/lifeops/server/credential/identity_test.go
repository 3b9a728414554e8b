package credential

import (
	"context"
	"testing"

	"github.com/coreos/go-oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jr0d/lifeops/pkg/lifeops/oauth2test"
	"github.com/jr0d/lifeops/pkg/lifeops/server/storage/memory"
)

func newIdentity(t *testing.T, p *oauth2test.Provider) *OIDCIdentity {
	t.Helper()
	provider, err := oidc.NewProvider(context.Background(), p.Issuer())
	require.NoError(t, err)
	return NewOIDCIdentity(provider, p.ClientID)
}

func withIDToken(t *testing.T, p *oauth2test.Provider, claims jwt.MapClaims) *oauth2.Token {
	t.Helper()
	raw, err := p.SignIDToken(claims)
	require.NoError(t, err)
	tok := &oauth2.Token{AccessToken: p.IssueAccessToken()}
	return tok.WithExtra(map[string]interface{}{"id_token": raw})
}

func TestOIDCIdentity_Email(t *testing.T) {
	p := oauth2test.NewProvider()
	defer p.Close()
	id := newIdentity(t, p)

	t.Run("email claim of a verified id_token", func(t *testing.T) {
		email, err := id.Email(context.Background(), withIDToken(t, p, jwt.MapClaims{"email": "claim@example.com"}))
		require.NoError(t, err)
		assert.Equal(t, "claim@example.com", email)
	})

	t.Run("id_token for another audience", func(t *testing.T) {
		tok := withIDToken(t, p, jwt.MapClaims{"email": "claim@example.com", "aud": "someone-else"})
		_, err := id.Email(context.Background(), tok)
		assert.Error(t, err)
	})

	t.Run("id_token without email falls back to userinfo", func(t *testing.T) {
		email, err := id.Email(context.Background(), withIDToken(t, p, jwt.MapClaims{}))
		require.NoError(t, err)
		assert.Equal(t, oauth2test.DefaultEmail, email)
	})

	t.Run("no id_token uses userinfo", func(t *testing.T) {
		email, err := id.Email(context.Background(), &oauth2.Token{AccessToken: p.IssueAccessToken()})
		require.NoError(t, err)
		assert.Equal(t, oauth2test.DefaultEmail, email)
	})

	t.Run("userinfo rejects unknown access token", func(t *testing.T) {
		_, err := id.Email(context.Background(), &oauth2.Token{AccessToken: "forged"})
		assert.Error(t, err)
	})
}

func TestCompleteAuthorization_UsesIDTokenEmail(t *testing.T) {
	p := oauth2test.NewProvider()
	defer p.Close()
	p.IssueIDToken = true
	p.AddCode("good-code")
	m, _ := newManager(t, p, memory.New())

	require.NoError(t, m.CompleteAuthorization(context.Background(), "good-code", redirectURI))
	res := m.GetCredential(context.Background())
	require.True(t, res.Authenticated())
	assert.Equal(t, oauth2test.DefaultEmail, res.Email)
}
