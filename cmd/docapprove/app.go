package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/ports"
	"github.com/docflow/approvals/internal/core/service"
	"github.com/docflow/approvals/internal/infrastructure/apiclient"
	"github.com/docflow/approvals/internal/infrastructure/imaging"
	"github.com/docflow/approvals/internal/infrastructure/session"
	"github.com/docflow/approvals/internal/pkg/config"
)

type app struct {
	out   io.Writer
	auth  ports.AuthService
	items ports.ItemService
	users ports.UserService
	log   zerolog.Logger
}

// newApp wires the session store, the resource client and the services.
// The returned cleanup releases the session backend.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer, log zerolog.Logger) (*app, func(), error) {
	store, cleanup, err := openSession(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Prefix:  cfg.API.Prefix,
		Timeout: cfg.API.Timeout,
	}, store, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &app{
		out:   out,
		auth:  service.NewAuthService(client, store, session.TokenUsable, log),
		items: service.NewItemService(client, client, imaging.NewResizer(imaging.DefaultMaxDimension), log),
		users: service.NewUserService(client, log),
		log:   log.With().Str("component", "cli").Logger(),
	}, cleanup, nil
}

func openSession(ctx context.Context, cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionRedis:
		client, err := session.ConnectRedis(ctx, session.RedisConfig{
			Addr:    cfg.Redis.Addr,
			DB:      cfg.Redis.DB,
			Timeout: cfg.API.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.Session.Key), func() { _ = client.Close() }, nil
	case config.SessionMemory:
		return session.NewMemoryStore(), func() {}, nil
	default:
		return session.NewFileStore(cfg.Session.Path, cfg.Session.Key), func() {}, nil
	}
}
