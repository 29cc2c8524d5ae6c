package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"permitflow/internal/audit"
	"permitflow/internal/events"
	jwttoken "permitflow/internal/jwt_token"
	"permitflow/internal/notification/dispatcher"
	notifhandler "permitflow/internal/notification/handler"
	notifservice "permitflow/internal/notification/service"
	"permitflow/internal/notification/qrcode"
	"permitflow/internal/permit/cascade"
	permithandler "permitflow/internal/permit/handler"
	"permitflow/internal/permit/service"
	"permitflow/internal/permit/status"
	"permitflow/internal/permit/store"
	"permitflow/internal/permit/subtype"
	"permitflow/internal/platform/config"
	"permitflow/internal/platform/httpserver"
	"permitflow/internal/platform/kafka"
	"permitflow/internal/platform/logger"
	"permitflow/internal/platform/metrics"
	"permitflow/internal/platform/postgres"
	platformredis "permitflow/internal/platform/redis"
	httptransport "permitflow/internal/transport/http"
)

const (
	tokenIssuer   = "permitflow"
	tokenAudience = "permitflow-api"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("permitflow exited with error", "error", err)
		os.Exit(1)
	}
}

type backends struct {
	client store.Client
	tx     store.Transactor
	db     *sql.DB
	checks map[string]httptransport.HealthCheck
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Server.DevSigningKey() {
		log.Warn("JWT_SIGNING_KEY not set, using the development key")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	be, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if be.db != nil {
		defer be.db.Close()
	}

	mode, err := subtype.ParseMode(cfg.Server.SyncMode)
	if err != nil {
		return err
	}

	auditPublisher := audit.NewPublisher(be.client)
	permits := service.New(be.client, be.tx,
		subtype.New(be.client, be.tx,
			subtype.WithMode(mode),
			subtype.WithLogger(log),
			subtype.WithMetrics(m),
		),
		cascade.New(be.client,
			cascade.WithTransaction(be.tx),
			cascade.WithLogger(log),
			cascade.WithMetrics(m),
		),
		service.WithAuditPublisher(auditPublisher),
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	if err := permits.SeedPermitTypes(ctx, service.DefaultPermitTypes); err != nil {
		return fmt.Errorf("seed permit types: %w", err)
	}
	notifications := notifservice.New(be.client,
		notifservice.WithLogger(log),
		notifservice.WithMetrics(m),
	)

	queue, ledger, closeRedis, err := openDispatchQueue(ctx, cfg, log, be.checks)
	if err != nil {
		return err
	}
	defer closeRedis()

	publisher, closeKafka, err := openEventPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeKafka()

	qr, err := qrResolver(ctx, cfg.QR)
	if err != nil {
		return err
	}

	controller := status.New(be.client, queue,
		status.WithAuditPublisher(auditPublisher),
		status.WithEventPublisher(publisher),
		status.WithLogger(log),
		status.WithMetrics(m),
	)

	dispatchOpts := []dispatcher.Option{
		dispatcher.WithLogger(log),
		dispatcher.WithMetrics(m),
	}
	if qr != nil {
		dispatchOpts = append(dispatchOpts, dispatcher.WithQRResolver(qr))
	}
	d := dispatcher.New(permits, notifications, ledger, dispatcher.Config{
		GracePeriod:  cfg.Dispatch.GracePeriod,
		RetryBackoff: cfg.Dispatch.RetryBackoff,
		MaxAttempts:  cfg.Dispatch.MaxAttempts,
	}, dispatchOpts...)
	worker := dispatcher.NewWorker(queue, d,
		dispatcher.WithConcurrency(cfg.Dispatch.Workers),
		dispatcher.WithJobTimeout(cfg.Dispatch.JobTimeout),
		dispatcher.WithWorkerLogger(log),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:    log,
		Validator: jwttoken.NewAdapter(jwttoken.NewJWTService(cfg.Server.JWTSigningKey, tokenIssuer, tokenAudience)),
		Gatherer:  registry,
		Checks:    be.checks,
		API: []httptransport.Routes{
			permithandler.New(permits, controller, log),
			notifhandler.New(notifications, log),
		},
	})
	srv := httpserver.New(cfg.Server, router)

	log.Info("starting permitflow",
		"addr", cfg.Server.Addr,
		"sync_mode", string(mode),
		"postgres", be.db != nil,
		"workers", cfg.Dispatch.Workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	return g.Wait()
}

// openStore returns the Postgres client when a database is configured and
// the in-memory client otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (backends, error) {
	checks := map[string]httptransport.HealthCheck{}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return backends{}, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, permits are kept in memory")
		mem := store.NewInMemory()
		return backends{client: mem, tx: mem, checks: checks}, nil
	}
	if cfg.ApplySchema {
		if err := postgres.ApplySchema(ctx, cfg.URL, store.Schema); err != nil {
			_ = db.Close()
			return backends{}, err
		}
	}
	checks["postgres"] = db.PingContext
	pg := store.NewPostgres(db)
	return backends{client: pg, tx: pg, db: db, checks: checks}, nil
}

type dispatchQueue interface {
	dispatcher.Queue
	status.Queue
}

// openDispatchQueue uses Redis for the queue and ledger when configured so
// jobs survive restarts and replicas share one ledger.
func openDispatchQueue(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (dispatchQueue, dispatcher.Ledger, func(), error) {
	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	if rc == nil {
		log.Warn("REDIS_URL not set, dispatch jobs are kept in memory")
		return dispatcher.NewMemoryQueue(cfg.Dispatch.QueueSize), dispatcher.NewMemoryLedger(), func() {}, nil
	}
	checks["redis"] = rc.Health

	queue := dispatcher.NewRedisQueue(rc.Client, cfg.Redis.QueuePrefix)
	// Recover also takes jobs from replicas sharing the prefix; the ledger
	// drops the duplicate delivery.
	recovered, err := queue.Recover(ctx)
	if err != nil {
		_ = rc.Close()
		return nil, nil, nil, fmt.Errorf("recover dispatch jobs: %w", err)
	}
	if recovered > 0 {
		log.Info("requeued in-flight dispatch jobs", "count", recovered)
	}
	ledger := dispatcher.NewRedisLedger(rc.Client, cfg.Redis.QueuePrefix, cfg.Redis.LedgerTTL)
	return queue, ledger, func() { _ = rc.Close() }, nil
}

func openEventPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (status.EventPublisher, func(), error) {
	client, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("KAFKA_BROKERS not set, status events are not published")
		return events.Noop{}, func() {}, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Topic, 3, 1); err != nil {
		client.Close()
		return nil, nil, err
	}
	return events.NewKafkaPublisher(client, cfg.Topic), client.Close, nil
}

// qrResolver returns nil when no QR source is configured; payment
// notifications then go out without a QR link.
func qrResolver(ctx context.Context, cfg config.QRConfig) (dispatcher.QRResolver, error) {
	if cfg.Bucket != "" {
		resolver, err := qrcode.NewS3FromConfig(ctx, qrcode.S3Config{
			Bucket:          cfg.Bucket,
			Key:             cfg.Key,
			KeyPrefix:       cfg.KeyPrefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Expiry:          cfg.URLExpiry,
		})
		if err != nil {
			return nil, fmt.Errorf("configure qr presigner: %w", err)
		}
		return resolver, nil
	}
	if cfg.StaticURL != "" {
		return qrcode.Static{URL: cfg.StaticURL}, nil
	}
	return nil, nil
}
