// Package server arma el servicio completo: storage, cache, directorio,
// controllers y el http.Server con apagado ordenado.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodir/internal/cache"
	"github.com/dropDatabas3/hellodir/internal/config"
	"github.com/dropDatabas3/hellodir/internal/directory"
	adminctrl "github.com/dropDatabas3/hellodir/internal/http/controllers/admin"
	mw "github.com/dropDatabas3/hellodir/internal/http/middlewares"
	"github.com/dropDatabas3/hellodir/internal/http/router"
	"github.com/dropDatabas3/hellodir/internal/metrics"
	"github.com/dropDatabas3/hellodir/internal/observability/logger"
	"github.com/dropDatabas3/hellodir/internal/store"
	"github.com/dropDatabas3/hellodir/internal/store/core"
	"github.com/dropDatabas3/hellodir/internal/store/pg"
)

// Server agrupa los recursos vivos del servicio para poder cerrarlos.
type Server struct {
	cfg   *config.Config
	http  *http.Server
	store core.Store
	cache cache.Client
	log   *zap.Logger
}

// New construye el servicio a partir de la configuración.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.L()

	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MinIdleConns:    cfg.Storage.Postgres.MinIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		},
	})
	if err != nil {
		return nil, err
	}

	var cc cache.Client
	opts := []directory.Option{}
	if cfg.Cache.Kind != "" && cfg.Cache.Kind != "none" {
		ccfg := cache.Config{Kind: cfg.Cache.Kind, DefaultTTL: cfg.CacheTTL()}
		ccfg.Redis.Addr = cfg.Cache.Redis.Addr
		ccfg.Redis.Password = cfg.Cache.Redis.Password
		ccfg.Redis.DB = cfg.Cache.Redis.DB
		ccfg.Redis.Prefix = cfg.Cache.Redis.Prefix
		cc, err = cache.New(ccfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, directory.WithCache(cc, cfg.CacheTTL()))
	}

	dir := directory.New(st, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}

	handler := router.New(router.Deps{
		Tenants: adminctrl.NewTenantsController(dir),
		Clients: adminctrl.NewClientsController(dir),
		Users:   adminctrl.NewUsersController(dir),
		Admin: mw.AdminConfig{
			Enforce:   cfg.Admin.Enforce,
			APIKey:    cfg.Admin.APIKey,
			JWTSecret: cfg.Admin.JWTSecret,
		},
		Ready: func(r *http.Request) error {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return st.View(ctx, func(core.Tx) error { return nil })
		},
		Registry: reg,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{cfg: cfg, http: httpSrv, store: st, cache: cc, log: log}, nil
}

// Run atiende requests hasta que el contexto se cancele y después apaga
// el server con gracia.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		s.closeResources()
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Warn("cache close failed", logger.Err(err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("store close failed", logger.Err(err))
	}
}
