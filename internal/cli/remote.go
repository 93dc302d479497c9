package cli

import (
	"context"
	"fmt"

	"github.com/Ning0612/cloudsync/internal/adapter"
	"github.com/Ning0612/cloudsync/internal/adapter/backend"
	"github.com/Ning0612/cloudsync/internal/adapter/gdrive"
	"github.com/Ning0612/cloudsync/internal/adapter/onedrive"
	"github.com/Ning0612/cloudsync/internal/auth"
	"github.com/Ning0612/cloudsync/internal/config"
	"github.com/Ning0612/cloudsync/internal/domain"
)

// backendRetries is how often the sync server is retried on 5xx answers
const backendRetries = 2

// remoteLister builds a router for the configured remote mode with a lister for provider
func (a *app) remoteLister(ctx context.Context, provider domain.Provider) (*adapter.Router, error) {
	router := adapter.NewRouter()

	if a.cfg.Remote.Mode == config.RemoteBackend {
		lister, err := backend.New(backend.Options{
			BaseURL:    a.cfg.Remote.BackendURL,
			Token:      a.cfg.Remote.Token,
			Timeout:    a.cfg.Remote.Timeout,
			RetryCount: backendRetries,
		})
		if err != nil {
			return nil, err
		}
		// the server knows both providers
		router.Register(domain.ProviderGoogle, lister)
		router.Register(domain.ProviderMicrosoft, lister)
		return router, nil
	}

	oc, err := a.cfg.Provider(provider)
	if err != nil {
		return nil, err
	}
	authenticator, err := auth.New(provider, oc)
	if err != nil {
		return nil, fmt.Errorf("%w (set providers.%s.client_id or use remote.mode=backend)", err, provider)
	}

	switch provider {
	case domain.ProviderGoogle:
		client, err := authenticator.HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		if a.cfg.Remote.Timeout > 0 {
			client.Timeout = a.cfg.Remote.Timeout
		}
		lister, err := gdrive.New(ctx, client)
		if err != nil {
			return nil, err
		}
		router.Register(provider, lister)

	case domain.ProviderMicrosoft:
		ts, err := authenticator.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		lister, err := onedrive.New(onedrive.Options{TokenSource: ts, Timeout: a.cfg.Remote.Timeout})
		if err != nil {
			return nil, err
		}
		router.Register(provider, lister)
	}

	return router, nil
}
