package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"idproof/internal/audit"
	"idproof/internal/objectstore"
	"idproof/internal/platform/config"
	"idproof/internal/platform/httpserver"
	"idproof/internal/platform/logger"
	platformredis "idproof/internal/platform/redis"
	"idproof/internal/platform/token"
	"idproof/internal/profile"
	httptransport "idproof/internal/transport/http"
	"idproof/internal/upload"
	uploadhandler "idproof/internal/upload/handler"
	uploadmetrics "idproof/internal/upload/metrics"
	"idproof/internal/verification"
	verifyhandler "idproof/internal/verification/handler"
	verifymetrics "idproof/internal/verification/metrics"
	"idproof/internal/verification/provider"
	id "idproof/pkg/domain"
)

// main wires dependencies by configuration and supervises the HTTP server and
// the audit worker. Business logic lives in the internal services.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	documents, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	profiles, closeProfiles, err := newProfileStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeProfiles()

	attempts, closeAttempts, err := newAttemptStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeAttempts()

	auditStore, sink, closeAudit, err := newAuditBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	recorder := audit.NewRecorder(1024, log)
	publisher := audit.NewPublisher(auditStore, sink, log)
	worker := audit.NewWorker(publisher, recorder.Inbox(), log)

	validator := token.NewValidator(cfg.JWTSigningKey)
	verifier := verification.NewService(
		attempts,
		profiles,
		newProvider(cfg, log),
		recorder,
		verifymetrics.New(),
		log,
	)
	uploads := upload.NewService(documents, recorder, uploadmetrics.New(), log)

	router := httptransport.NewRouter(log,
		verifyhandler.New(verifier, validator, log),
		uploadhandler.New(uploads, verifier, validator, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting idproof server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newObjectStore(ctx context.Context, cfg config.Config, log *slog.Logger) (objectstore.Store, error) {
	if cfg.ObjectStore.Mode == "s3" {
		store, err := objectstore.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		log.Info("using s3 object store", "bucket", cfg.ObjectStore.Bucket)
		return store, nil
	}
	log.Info("using in-memory object store")
	return objectstore.NewInMemoryStore(), nil
}

func newProfileStore(ctx context.Context, cfg config.Config, log *slog.Logger) (profile.Store, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("using in-memory profile store")
		return profile.NewInMemoryStore(), func() {}, nil
	}
	store, err := profile.OpenPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("profile store: %w", err)
	}
	log.Info("using postgres profile store")
	return store, store.Close, nil
}

func newAttemptStore(cfg config.Config, log *slog.Logger) (verification.AttemptStore, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("attempt store: %w", err)
	}
	if client == nil {
		log.Info("using in-memory attempt store")
		return verification.NewInMemoryAttemptStore(), func() {}, nil
	}
	log.Info("using redis attempt store")
	return verification.NewRedisAttemptStore(client.Client), func() { _ = client.Close() }, nil
}

func newAuditBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, audit.Sink, func(), error) {
	var store audit.Store
	closers := make([]func(), 0, 2)

	if cfg.Database.URL != "" {
		pg, err := audit.OpenPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("audit store: %w", err)
		}
		closers = append(closers, func() { _ = pg.Close() })
		store = pg
		log.Info("using postgres audit store")
	} else {
		store = audit.NewInMemoryStore()
		log.Info("using in-memory audit store")
	}

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("audit sink: %w", err)
		}
		closers = append(closers, kafka.Close)
		sink = kafka
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.Topic)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return store, sink, closeAll, nil
}

func newProvider(cfg config.Config, log *slog.Logger) provider.Provider {
	if cfg.Provider.Mode == "vendor" && cfg.Provider.VendorURL != "" {
		log.Info("using vendor verification provider", "url", cfg.Provider.VendorURL)
		return provider.NewVendor(cfg.Provider.VendorURL, nil)
	}
	log.Info("using simulated verification provider",
		"latency", cfg.Provider.SimulatedLatency,
		"verdict", cfg.Provider.SimulatedVerdict,
	)
	return provider.NewSimulated(
		cfg.Provider.SimulatedLatency,
		cfg.Provider.SimulatedVerdict,
		cfg.Provider.SimulatedAge,
		id.NormalizeDocumentKind(cfg.Provider.SimulatedDocument),
	)
}
