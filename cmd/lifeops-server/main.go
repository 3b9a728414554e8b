package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/jr0d/lifeops/pkg/lifeops"
	"github.com/jr0d/lifeops/pkg/lifeops/config"
	"github.com/jr0d/lifeops/pkg/lifeops/google"
	"github.com/jr0d/lifeops/pkg/lifeops/logging"
	"github.com/jr0d/lifeops/pkg/lifeops/server"
	"github.com/jr0d/lifeops/pkg/lifeops/server/credential"
	"github.com/jr0d/lifeops/pkg/lifeops/server/storage"
	"github.com/jr0d/lifeops/pkg/lifeops/server/storage/file"
	"github.com/jr0d/lifeops/pkg/lifeops/server/storage/memory"
)

const shutdownTimeout = 10 * time.Second

func main() {
	opts, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.New(opts.LogLevel, opts.LogFormat, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, log); err != nil {
		log.WithError(err).Fatal("lifeops server exited")
	}
}

func run(ctx context.Context, opts *config.Options, log *logrus.Logger) error {
	httpClient, err := getHTTPClient(opts.CAFile)
	if err != nil {
		return err
	}

	providerCtx, cancel := context.WithTimeout(oidc.ClientContext(ctx, httpClient), 30*time.Second)
	defer cancel()
	provider, err := oidc.NewProvider(providerCtx, opts.IssuerURL)
	if err != nil {
		return fmt.Errorf("error discovering issuer %s: %w", opts.IssuerURL, err)
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	oauth2Config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       lifeops.DefaultScopes,
	}

	var store storage.TokenStore
	if opts.TokenPath != "" {
		store = file.New(opts.TokenPath)
	} else {
		log.Warn("no token path configured, credentials will not survive a restart")
		store = memory.New()
	}

	manager, err := credential.NewManager(oauth2Config, store, credential.NewOIDCIdentity(provider, opts.ClientID), log)
	if err != nil {
		return err
	}
	manager.RefreshTimeout = opts.RefreshTimeout
	manager.HTTPClient = httpClient

	secret := []byte(opts.StateSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("error generating state secret: %w", err)
		}
	}

	s := &server.LifeOpsServer{
		Quiet:       opts.Quiet,
		Log:         log,
		Credentials: manager,
		Google:      &google.Factory{},
		FrontendURL: opts.FrontendURL,
		RedirectURL: opts.RedirectURL,
		CORSOrigins: opts.CORSOrigins,
		HmacTTL:     int64(opts.StateTTL / time.Second),
		HmacSecret:  secret,
	}

	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.WithFields(logrus.Fields{
		"addr":   opts.Addr(),
		"issuer": opts.IssuerURL,
		"tokens": opts.TokenPath,
	}).Info("starting lifeops server")

	return runServer(ctx, opts.Addr(), s.Router(), log)
}

func runServer(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func getHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: 30 * time.Second}, nil
	}

	certPool, err := x509.SystemCertPool()
	if err != nil {
		certPool = x509.NewCertPool()
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", caFile, err)
	}
	if !certPool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}
	tr := http.Transport{TLSClientConfig: &tls.Config{RootCAs: certPool}}

	return &http.Client{Transport: &tr, Timeout: 30 * time.Second}, nil
}
