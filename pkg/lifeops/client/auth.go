package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/browser"

	"github.com/jr0d/lifeops/pkg/lifeops"
)

const (
	DefaultQueryTimeout  = 5 * time.Minute
	DefaultQueryInterval = 2 * time.Second
)

var ErrQueryTimeout = errors.New("timed out waiting for authentication")

type LifeOpsClient struct {
	BaseURL    string
	HTTPClient *http.Client
	NoBrowser  bool
	// Out receives the consent URL when no browser is opened. Defaults to stdout.
	Out io.Writer

	QueryTimeout  time.Duration
	QueryInterval time.Duration

	authURL string
	openURL func(string) error
}

func New(baseURL string, caFile string, caData []byte) (*LifeOpsClient, error) {
	client := LifeOpsClient{
		BaseURL:       baseURL,
		QueryTimeout:  DefaultQueryTimeout,
		QueryInterval: DefaultQueryInterval,
	}

	certPool, err := x509.SystemCertPool()
	if err != nil {
		certPool = x509.NewCertPool()
	}

	if len(caFile) > 0 {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", caFile, err)
		}
		certPool.AppendCertsFromPEM(pem)
	}

	if len(caData) > 0 {
		certPool.AppendCertsFromPEM(caData)
	}

	tr := http.Transport{TLSClientConfig: &tls.Config{RootCAs: certPool}}

	client.HTTPClient = &http.Client{Transport: &tr, Timeout: 30 * time.Second}

	return &client, nil
}

// Initialize asks the server for a consent URL.
func (k *LifeOpsClient) Initialize() error {
	response := &lifeops.LoginResponse{}
	if err := k.do(http.MethodGet, lifeops.LoginEndpoint, response); err != nil {
		return fmt.Errorf("error initializing login: %w", err)
	}
	if response.AuthURL == "" {
		return errors.New("server returned an empty auth url")
	}
	k.authURL = response.AuthURL
	return nil
}

func (k *LifeOpsClient) AuthURL() string {
	return k.authURL
}

// Start opens the consent URL in a browser, or prints it when that is disabled or fails.
func (k *LifeOpsClient) Start() error {
	if k.authURL == "" {
		return errors.New("login was not initialized")
	}
	if !k.NoBrowser {
		open := k.openURL
		if open == nil {
			open = browser.OpenURL
		}
		if err := open(k.authURL); err == nil {
			return nil
		}
	}
	out := k.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintf(out, "Auth URL: %s\n", k.authURL)
	return err
}

// Query polls the status endpoint until the server reports an authenticated credential.
func (k *LifeOpsClient) Query(ctx context.Context) (*lifeops.AuthStatusResponse, error) {
	timeout := k.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	interval := k.QueryInterval
	if interval <= 0 {
		interval = DefaultQueryInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := k.Status()
		if err != nil {
			return nil, err
		}
		if status.Authenticated {
			return status, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrQueryTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (k *LifeOpsClient) Status() (*lifeops.AuthStatusResponse, error) {
	status := &lifeops.AuthStatusResponse{}
	if err := k.do(http.MethodGet, lifeops.StatusEndpoint, status); err != nil {
		return nil, fmt.Errorf("error accessing status endpoint: %w", err)
	}
	return status, nil
}

func (k *LifeOpsClient) Logout() error {
	response := &lifeops.SuccessResponse{}
	if err := k.do(http.MethodPost, lifeops.LogoutEndpoint, response); err != nil {
		return fmt.Errorf("error logging out: %w", err)
	}
	if !response.Success {
		return errors.New("server did not confirm logout")
	}
	return nil
}

func (k *LifeOpsClient) do(method, endpoint string, out interface{}) error {
	req, err := http.NewRequest(method, k.join(endpoint), nil)
	if err != nil {
		return err
	}
	resp, err := k.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server responded with invalid status: %d, body: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse server response: %w", err)
	}
	return nil
}

func (k *LifeOpsClient) join(endpoint string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(k.BaseURL, "/"), strings.TrimPrefix(endpoint, "/"))
}
