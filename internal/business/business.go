// Package business wires the configured dependencies together and runs the
// long-lived jobs.
package business

import (
	"context"
	"fmt"
	"net/http"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	slogctx "github.com/veqryn/slog-context"

	"github.com/gdpm-dev/session-bridge/internal/authflow"
	"github.com/gdpm-dev/session-bridge/internal/business/server"
	"github.com/gdpm-dev/session-bridge/internal/config"
	identitysql "github.com/gdpm-dev/session-bridge/internal/identity/sql"
	"github.com/gdpm-dev/session-bridge/internal/provider"
	"github.com/gdpm-dev/session-bridge/internal/session"
)

// Main starts the API server.
func Main(ctx context.Context, cfg *config.Config) error {
	bridge, closeFn, err := initBridge(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the session bridge: %w", err)
	}

	defer closeFn()

	return server.StartHTTPServer(ctx, cfg, bridge)
}

// initBridge constructs the flow service and resolver from the config. The
// connection pool is created last so every earlier failure path has nothing
// to close.
func initBridge(ctx context.Context, cfg *config.Config) (_ *server.Bridge, closeFn func(), _ error) {
	names, err := session.DeriveNames(cfg.Backend.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving cookie names: %w", err)
	}
	slogctx.Info(ctx, "Derived session cookie names", "access", names.Access)

	poolCfg, err := pgxpool.ParseConfig(config.MakeConnStr(cfg.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing pool config: %w", err)
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising pgxpool connection: %w", err)
	}

	registry := provider.NewRegistry(http.DefaultClient)
	handle := registry.GetOrCreate(cfg.Backend.URL, cfg.Backend.AnonKey)

	store := identitysql.NewRepository(db)
	cookies := session.NewStore(names, cfg.Application.IsProduction())
	flows := authflow.NewService(handle, store, cookies, handle)
	resolver := session.NewResolver(cookies, handle)

	bridge := &server.Bridge{
		Flows:    flows,
		Resolver: resolver,
	}

	return bridge, db.Close, nil
}
