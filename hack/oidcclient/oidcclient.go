// Command oidcclient prints the discovered endpoints and a consent URL for an issuer, and
// optionally exchanges an authorization code pasted from the callback.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	oidc "github.com/coreos/go-oidc"
	"github.com/jessevdk/go-flags"
	"golang.org/x/oauth2"

	"github.com/jr0d/lifeops/pkg/lifeops"
)

type options struct {
	Issuer       string `long:"issuer-url" env:"OIDC_ISSUER" default:"https://accounts.google.com" description:"URL of the OIDC issuer"`
	ClientID     string `long:"client-id" env:"GOOGLE_CLIENT_ID" required:"true" description:"OAuth2 ClientID"`
	ClientSecret string `long:"client-secret" env:"GOOGLE_CLIENT_SECRET" description:"OAuth2 Client Secret"`
	RedirectURL  string `long:"redirect-url" default:"http://localhost:8000/auth/callback" description:"Redirect URL"`
	Code         string `long:"code" description:"authorization code to exchange"`
}

func main() {
	opts := &options{}
	if _, err := flags.Parse(opts); err != nil {
		os.Exit(2)
	}

	ctx := context.Background()
	provider, err := oidc.NewProvider(ctx, opts.Issuer)
	if err != nil {
		panic(err.Error())
	}

	oauth2Config := oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       lifeops.DefaultScopes,
	}

	fmt.Printf("issuer: %s\n", opts.Issuer)
	fmt.Printf("auth endpoint: %s\n", provider.Endpoint().AuthURL)
	fmt.Printf("token endpoint: %s\n", provider.Endpoint().TokenURL)

	state, err := nonce()
	if err != nil {
		panic(err.Error())
	}
	fmt.Printf("consent URL: %s\n", oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	if opts.Code == "" {
		return
	}

	token, err := oauth2Config.Exchange(ctx, opts.Code)
	if err != nil {
		panic(err.Error())
	}
	out := map[string]interface{}{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expiry":        token.Expiry,
	}
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		idToken, err := provider.Verifier(&oidc.Config{ClientID: opts.ClientID}).Verify(ctx, rawIDToken)
		if err != nil {
			panic(err.Error())
		}
		claims := map[string]interface{}{}
		if err := idToken.Claims(&claims); err != nil {
			panic(err.Error())
		}
		out["id_token_claims"] = claims
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func nonce() (string, error) {
	n := make([]byte, 16)
	if _, err := rand.Read(n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", n), nil
}
