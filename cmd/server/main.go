// Command server runs the land-title registry: the HTTP API, the record
// store, the event worker, and the audit trail.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"bhoomi/internal/audit"
	auditmem "bhoomi/internal/audit/store/memory"
	auditpg "bhoomi/internal/audit/store/postgres"
	"bhoomi/internal/jwttoken"
	"bhoomi/internal/notify"
	"bhoomi/internal/platform/config"
	"bhoomi/internal/platform/httpserver"
	"bhoomi/internal/platform/logger"
	platformredis "bhoomi/internal/platform/redis"
	"bhoomi/internal/registry/handler"
	"bhoomi/internal/registry/ledger"
	"bhoomi/internal/registry/metrics"
	"bhoomi/internal/registry/service"
	httptransport "bhoomi/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	policy, err := service.ParseUnfreezePolicy(cfg.UnfreezePolicy)
	if err != nil {
		return err
	}

	// Record store: Postgres when configured, in-memory otherwise.
	var store ledger.Store
	var auditStore audit.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pg := ledger.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg

		trail, err := auditpg.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := trail.Migrate(ctx); err != nil {
			return err
		}
		defer trail.Close()
		auditStore = trail
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		store = ledger.NewInMemory()
		auditStore = auditmem.NewInMemoryStore()
	}
	defer store.Close()

	// Optional Redis read cache.
	var cache *ledger.Cache
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		cache = ledger.NewCache(rdb.Client, cfg.Redis.CacheTTL)
	}

	// Event pipeline: Kafka when configured, otherwise events are dropped
	// after logging.
	var publisher notify.Publisher = notify.NoOp{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		publisher = kafka
	}
	defer publisher.Close()
	sink := notify.NewSink(256, log)
	worker := notify.NewWorker(publisher, sink)

	auditTrail := audit.NewPublisher(auditStore)
	registry := service.New(store, sink, log,
		service.Config{
			RegistrarRole:  cfg.RegistrarRole,
			UnfreezePolicy: policy,
		},
		service.WithCache(cache),
		service.WithAudit(auditTrail),
		service.WithMetrics(metrics.New()),
	)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "bhoomi")
	router := httptransport.NewRouter(
		handler.New(registry, auditTrail, log),
		jwttoken.NewMiddlewareAdapter(jwtService),
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting bhoomi registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
