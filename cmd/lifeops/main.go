package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/jr0d/lifeops/pkg/lifeops/client"
	"github.com/jr0d/lifeops/pkg/lifeops/logging"
)

type Options struct {
	ServerURL string `short:"s" long:"server-url" env:"LIFEOPS_URL" default:"http://localhost:8000" description:"base URL of the lifeops backend"`
	CAFile    string `long:"ca-file" env:"LIFEOPS_CA_FILE" description:"CA certificate file"`
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" default:"warn" description:"log level"`
}

type LoginCommand struct {
	NoBrowser bool          `long:"no-browser" description:"print the consent URL instead of opening a browser"`
	Timeout   time.Duration `long:"timeout" default:"5m" description:"how long to wait for the consent to finish"`
	Interval  time.Duration `long:"interval" default:"2s" description:"status polling interval"`
}

type StatusCommand struct {
	ShowToken bool `long:"show-token" description:"print the current access token"`
}

type LogoutCommand struct{}

var (
	options = &Options{}
	log     = logging.New("warn", logging.FormatText, os.Stderr)
)

func main() {
	parser := flags.NewParser(options, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		log = logging.New(options.LogLevel, logging.FormatText, os.Stderr)
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	_, _ = parser.AddCommand("login", "Authorize the backend with Google", "Opens the consent page and waits until the backend holds a credential.", &LoginCommand{})
	_, _ = parser.AddCommand("status", "Show the backend credential state", "", &StatusCommand{})
	_, _ = parser.AddCommand("logout", "Discard the backend credential", "", &LogoutCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(2)
		}
		log.Error(err)
		os.Exit(1)
	}
}

func newClient() (*client.LifeOpsClient, error) {
	c, err := client.New(options.ServerURL, options.CAFile, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

func (l *LoginCommand) Execute(_ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	c.NoBrowser = l.NoBrowser
	c.QueryTimeout = l.Timeout
	c.QueryInterval = l.Interval

	if err := c.Initialize(); err != nil {
		return err
	}
	log.WithField("auth_url", c.AuthURL()).Debug("starting consent flow")
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start consent flow: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	status, err := c.Query(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Authenticated as %s\n", status.Email)
	return nil
}

func (s *StatusCommand) Execute(_ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	status, err := c.Status()
	if err != nil {
		return err
	}
	if !status.Authenticated {
		fmt.Println("Not authenticated")
		return nil
	}
	fmt.Printf("Authenticated as %s\n", status.Email)
	if status.Expiry != "" {
		fmt.Printf("Access token expires %s\n", status.Expiry)
	}
	if s.ShowToken {
		fmt.Println(status.AccessToken)
	}
	return nil
}

func (o *LogoutCommand) Execute(_ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
