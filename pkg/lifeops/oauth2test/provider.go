// Package oauth2test provides an in-process OpenID Connect provider for tests: discovery,
// JWKS, token (authorization_code and refresh_token grants) and userinfo endpoints.
package oauth2test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	jose "gopkg.in/square/go-jose.v2"
)

const (
	DefaultClientID     = "lifeops-client"
	DefaultClientSecret = "lifeops-secret"
	DefaultEmail        = "me@example.com"

	keyID = "oauth2test-key"
)

type Provider struct {
	Server *httptest.Server

	ClientID     string
	ClientSecret string
	Email        string
	// ExpiresIn is the lifetime in seconds of issued access tokens. Zero omits expires_in.
	ExpiresIn int
	// IssueIDToken adds a signed id_token to authorization_code responses.
	IssueIDToken bool
	// OmitRefreshToken drops refresh_token from authorization_code responses.
	OmitRefreshToken bool
	// RotateRefreshToken makes refresh_token grants return a new refresh token.
	RotateRefreshToken bool
	// RefreshDelay is slept before answering a refresh_token grant.
	RefreshDelay time.Duration

	key *rsa.PrivateKey

	mu              sync.Mutex
	codes           map[string]bool
	accessTokens    map[string]bool
	refreshTokens   map[string]bool
	counter         int
	failRefresh     bool
	refreshCalls    int
	exchangeCalls   int
	lastRedirectURI string
}

func NewProvider() *Provider {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("oauth2test: generating key: %v", err))
	}
	p := &Provider{
		ClientID:      DefaultClientID,
		ClientSecret:  DefaultClientSecret,
		Email:         DefaultEmail,
		ExpiresIn:     3600,
		key:           key,
		codes:         map[string]bool{},
		accessTokens:  map[string]bool{},
		refreshTokens: map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("/jwks", p.jwks)
	mux.HandleFunc("/token", p.token)
	mux.HandleFunc("/userinfo", p.userinfo)
	p.Server = httptest.NewServer(mux)
	return p
}

func (p *Provider) Close() {
	p.Server.Close()
}

// Issuer is the base URL of the provider, as announced by discovery.
func (p *Provider) Issuer() string {
	return p.Server.URL
}

func (p *Provider) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   p.Server.URL + "/auth",
		TokenURL:  p.Server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func (p *Provider) OAuth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     p.Endpoint(),
		Scopes:       []string{"openid", "email"},
	}
}

// IssueCode registers a fresh single-use authorization code.
func (p *Provider) IssueCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	code := fmt.Sprintf("code-%d", p.counter)
	p.codes[code] = false
	return code
}

// AddCode registers a caller-chosen single-use authorization code.
func (p *Provider) AddCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[code] = false
}

// AddRefreshToken makes the token endpoint accept refreshToken.
func (p *Provider) AddRefreshToken(refreshToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshTokens[refreshToken] = true
}

// IssueAccessToken makes the userinfo endpoint accept a fresh access token.
func (p *Provider) IssueAccessToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextAccessToken()
}

func (p *Provider) SetRefreshFailure(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failRefresh = fail
}

func (p *Provider) RefreshCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

func (p *Provider) ExchangeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCalls
}

func (p *Provider) LastRedirectURI() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRedirectURI
}

// SignIDToken signs claims with the provider key. iss, aud, iat and exp are filled in
// when missing.
func (p *Provider) SignIDToken(claims jwt.MapClaims) (string, error) {
	now := time.Now()
	defaults := jwt.MapClaims{
		"iss": p.Issuer(),
		"aud": p.ClientID,
		"sub": "1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range defaults {
		if _, ok := claims[k]; !ok {
			claims[k] = v
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID
	return token.SignedString(p.key)
}

func (p *Provider) discovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                p.Issuer(),
		"authorization_endpoint":                p.Server.URL + "/auth",
		"token_endpoint":                        p.Server.URL + "/token",
		"userinfo_endpoint":                     p.Server.URL + "/userinfo",
		"jwks_uri":                              p.Server.URL + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (p *Provider) jwks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &p.key.PublicKey,
		KeyID:     keyID,
		Algorithm: "RS256",
		Use:       "sig",
	}}})
}

func (p *Provider) token(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := req.ParseForm(); err != nil {
		tokenError(w, "invalid_request")
		return
	}
	clientID, clientSecret, ok := req.BasicAuth()
	if !ok {
		clientID, clientSecret = req.PostForm.Get("client_id"), req.PostForm.Get("client_secret")
	}
	if clientID != p.ClientID || clientSecret != p.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	switch req.PostForm.Get("grant_type") {
	case "authorization_code":
		p.exchange(w, req)
	case "refresh_token":
		p.refresh(w, req)
	default:
		tokenError(w, "unsupported_grant_type")
	}
}

func (p *Provider) exchange(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	p.exchangeCalls++
	p.lastRedirectURI = req.PostForm.Get("redirect_uri")
	code := req.PostForm.Get("code")
	used, known := p.codes[code]
	if !known || used {
		p.mu.Unlock()
		tokenError(w, "invalid_grant")
		return
	}
	p.codes[code] = true
	access := p.nextAccessToken()
	var refresh string
	if !p.OmitRefreshToken {
		p.counter++
		refresh = fmt.Sprintf("refresh-%d", p.counter)
		p.refreshTokens[refresh] = true
	}
	issueIDToken := p.IssueIDToken
	email := p.Email
	p.mu.Unlock()

	body := p.tokenBody(access)
	if refresh != "" {
		body["refresh_token"] = refresh
	}
	if issueIDToken {
		idToken, err := p.SignIDToken(jwt.MapClaims{"email": email})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body["id_token"] = idToken
	}
	writeJSON(w, http.StatusOK, body)
}

func (p *Provider) refresh(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	p.refreshCalls++
	delay := p.RefreshDelay
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	p.mu.Lock()
	if p.failRefresh || !p.refreshTokens[req.PostForm.Get("refresh_token")] {
		p.mu.Unlock()
		tokenError(w, "invalid_grant")
		return
	}
	access := p.nextAccessToken()
	var rotated string
	if p.RotateRefreshToken {
		p.counter++
		rotated = fmt.Sprintf("refresh-%d", p.counter)
		p.refreshTokens[rotated] = true
	}
	p.mu.Unlock()

	body := p.tokenBody(access)
	if rotated != "" {
		body["refresh_token"] = rotated
	}
	writeJSON(w, http.StatusOK, body)
}

// nextAccessToken must be called with p.mu held.
func (p *Provider) nextAccessToken() string {
	p.counter++
	access := fmt.Sprintf("access-%d", p.counter)
	p.accessTokens[access] = true
	return access
}

func (p *Provider) tokenBody(access string) map[string]interface{} {
	body := map[string]interface{}{
		"access_token": access,
		"token_type":   "Bearer",
	}
	p.mu.Lock()
	if p.ExpiresIn > 0 {
		body["expires_in"] = p.ExpiresIn
	}
	p.mu.Unlock()
	return body
}

func (p *Provider) userinfo(w http.ResponseWriter, req *http.Request) {
	access := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
	p.mu.Lock()
	known := p.accessTokens[access]
	email := p.Email
	p.mu.Unlock()
	if !known {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sub":            "1",
		"email":          email,
		"email_verified": true,
	})
}

func tokenError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
