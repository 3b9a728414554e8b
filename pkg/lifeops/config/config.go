// Package config loads backend settings from the command line, the environment and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const DefaultIssuer = "https://accounts.google.com"

type Options struct {
	ClientID     string `long:"client-id" env:"GOOGLE_CLIENT_ID" description:"OAuth2 client id"`
	ClientSecret string `long:"client-secret" env:"GOOGLE_CLIENT_SECRET" description:"OAuth2 client secret"`
	IssuerURL    string `long:"issuer-url" env:"OIDC_ISSUER" default:"https://accounts.google.com" description:"OpenID Connect issuer"`
	CAFile       string `long:"ca-file" env:"CA_FILE" description:"CA certificate used to reach the issuer"`

	FrontendURL string   `long:"frontend-url" env:"FRONTEND_URL" default:"http://localhost:5173" description:"where the browser lands after the consent callback"`
	RedirectURL string   `long:"redirect-url" env:"REDIRECT_URL" description:"registered callback URL, derived from the request when empty"`
	CORSOrigins []string `long:"cors-origin" env:"CORS_ORIGINS" env-delim:"," description:"additional allowed CORS origins"`

	TokenPath      string        `long:"token-path" env:"TOKEN_PATH" default:"tokens.json" description:"token file, in-memory storage when empty"`
	RefreshTimeout time.Duration `long:"refresh-timeout" env:"REFRESH_TIMEOUT" default:"10s" description:"timeout of a single token refresh"`

	StateSecret string        `long:"state-secret" env:"STATE_SECRET" description:"HMAC secret for the OAuth2 state, random per process when empty"`
	StateTTL    time.Duration `long:"state-ttl" env:"STATE_TTL" default:"10m" description:"how long a consent flow may take"`

	Host string `long:"host" env:"HOST" default:"0.0.0.0" description:"listen host"`
	Port int    `short:"p" long:"port" env:"PORT" default:"8000" description:"listen port"`

	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"log level"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"log format"`
	Quiet     bool   `short:"q" long:"quiet" env:"QUIET" description:"suppress request logging"`
}

// Load reads .env from the working directory, when present, then parses args.
// Variables already set in the environment win over .env.
func Load(args []string) (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	return Parse(args)
}

func Parse(args []string) (*Options, error) {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) Validate() error {
	if o.ClientID == "" || o.ClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	if err := absoluteURL("issuer-url", o.IssuerURL); err != nil {
		return err
	}
	if err := absoluteURL("frontend-url", o.FrontendURL); err != nil {
		return err
	}
	if o.RedirectURL != "" {
		if err := absoluteURL("redirect-url", o.RedirectURL); err != nil {
			return err
		}
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port: %d", o.Port)
	}
	if o.StateTTL <= 0 {
		return fmt.Errorf("state-ttl must be positive, got %s", o.StateTTL)
	}
	if o.RefreshTimeout <= 0 {
		return fmt.Errorf("refresh-timeout must be positive, got %s", o.RefreshTimeout)
	}
	return nil
}

func (o *Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func absoluteURL(name, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute URL", name, value)
	}
	return nil
}
