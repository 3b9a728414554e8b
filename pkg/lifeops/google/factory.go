// Package google builds Google API clients for the resources LifeOps republishes: calendar
// events, task lists, spreadsheets, drive files and documents.
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/tasks/v1"
)

const DefaultUserAgent = "lifeops"

type Factory struct {
	// Endpoint overrides the base URL of every service.
	Endpoint  string
	UserAgent string
}

func (f *Factory) options(ctx context.Context, ts oauth2.TokenSource) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if f.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.Endpoint))
	}
	return opts
}

func (f *Factory) userAgent() string {
	if f.UserAgent == "" {
		return DefaultUserAgent
	}
	return f.UserAgent
}

func (f *Factory) Calendar(ctx context.Context, ts oauth2.TokenSource) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, f.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("error creating calendar service: %w", err)
	}
	svc.UserAgent = f.userAgent()
	return svc, nil
}

func (f *Factory) Tasks(ctx context.Context, ts oauth2.TokenSource) (*tasks.Service, error) {
	svc, err := tasks.NewService(ctx, f.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("error creating tasks service: %w", err)
	}
	svc.UserAgent = f.userAgent()
	return svc, nil
}

func (f *Factory) Sheets(ctx context.Context, ts oauth2.TokenSource) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx, f.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("error creating sheets service: %w", err)
	}
	svc.UserAgent = f.userAgent()
	return svc, nil
}

func (f *Factory) Drive(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, f.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("error creating drive service: %w", err)
	}
	svc.UserAgent = f.userAgent()
	return svc, nil
}

func (f *Factory) Docs(ctx context.Context, ts oauth2.TokenSource) (*docs.Service, error) {
	svc, err := docs.NewService(ctx, f.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("error creating docs service: %w", err)
	}
	svc.UserAgent = f.userAgent()
	return svc, nil
}
