package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shopcore/internal/application/notify"
	"shopcore/internal/application/settlement"
	"shopcore/internal/auth"
	"shopcore/internal/config"
	"shopcore/internal/domain/storage"
	"shopcore/internal/infrastructure/gateway"
	httptransport "shopcore/internal/infrastructure/http"
	"shopcore/internal/infrastructure/id"
	"shopcore/internal/infrastructure/memory"
	"shopcore/internal/infrastructure/postgres"
	"shopcore/internal/infrastructure/realtime"
	"shopcore/internal/pkg/logging"
	"shopcore/internal/pkg/metrics"
)

func main() {
	cfg := config.Load()

	logger := logging.MustNew(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer cleanup()

	m := metrics.New(prometheus.DefaultRegisterer)
	ids := id.NewUUIDGenerator()

	// The static verifier stands in for the external token service; a
	// real deployment injects its own auth.Verifier here.
	verifier := auth.NewStaticVerifier(devTokens(cfg))

	hub := realtime.NewHub(logger)
	notifySvc := notify.NewService(store, hub, ids, m)

	gw := gateway.NewMock(
		gateway.WithLatency(cfg.GatewayLatency),
		gateway.WithDeclineRate(cfg.GatewayDeclineRate),
	)
	settlementSvc := settlement.NewService(store, gw, notifySvc, ids, cfg.AdminUserID, m)

	wsHandler := realtime.NewWSHandler(hub, verifier, logger)
	handler := httptransport.NewHandler(settlementSvc, notifySvc, verifier, wsHandler, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}

func openStore(cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.Storage == "memory" {
		logger.Info("storage_memory")
		return memory.NewStore(), func() {}, nil
	}

	pg, err := postgres.Open(cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}

	logger.Info("storage_postgres", zap.String("host", cfg.DBHost))
	return pg, func() { _ = pg.Close() }, nil
}

// devTokens maps local development credentials. ADMIN_TOKEN and
// USER_TOKEN are only read here; production wiring replaces the static
// verifier entirely.
func devTokens(cfg config.Config) map[string]auth.Identity {
	tokens := make(map[string]auth.Identity)
	if t := os.Getenv("ADMIN_TOKEN"); t != "" {
		tokens[t] = auth.Identity{UserID: cfg.AdminUserID, Role: auth.RoleAdmin}
	}
	if t := os.Getenv("USER_TOKEN"); t != "" {
		tokens[t] = auth.Identity{UserID: os.Getenv("USER_TOKEN_ID"), Role: auth.RoleUser}
	}
	return tokens
}
