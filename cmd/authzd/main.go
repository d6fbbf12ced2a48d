package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authzkit/pkg/audit"
	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/authzhttp"
	"github.com/dmitrymomot/authzkit/pkg/config"
	"github.com/dmitrymomot/authzkit/pkg/directory"
	"github.com/dmitrymomot/authzkit/pkg/httpserver"
	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/permcache"
	"github.com/dmitrymomot/authzkit/pkg/pg"
)

// policyStore is what the engine needs from a policy backend.
type policyStore interface {
	authz.PrincipalDirectory
	authz.ResourceDirectory
}

func main() {
	if err := run(); err != nil {
		slog.Default().Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(logger.WithService(cfg.AppName, cfg.AppEnv))
	logger.SetAsDefault(log)

	var (
		store  policyStore
		probes []func(context.Context) error
	)
	switch cfg.PolicySource {
	case "file":
		mem, err := directory.LoadFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("load policy file %s: %w", cfg.PolicyFile, err)
		}
		store = mem
		log.InfoContext(ctx, "policy loaded from file", slog.String("path", cfg.PolicyFile))
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, directory.Migrations(), pgCfg, log); err != nil {
			return err
		}
		store = directory.NewPostgres(pool)
		probes = append(probes, pg.Healthcheck(pool))
		log.InfoContext(ctx, "policy store ready", slog.String("source", "postgres"))
	default:
		return fmt.Errorf("unknown policy source %q", cfg.PolicySource)
	}

	engineOpts := []authz.Option{authz.WithLogger(log.With(logger.Component("engine")))}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			log.WarnContext(ctx, "redis ping failed, cache degraded", logger.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.WarnContext(ctx, "redis close", logger.Error(err))
			}
		}()
		engineOpts = append(engineOpts, authz.WithCache(
			permcache.NewRedis(client, permcache.WithLogger(log.With(logger.Component("permcache"))))))
		probes = append(probes, func(ctx context.Context) error { return client.Ping(ctx).Err() })
	}

	auditLog := log.With(logger.Component("audit"))
	writer, closeWriter := audit.NewAsyncWriter(audit.NewSlogStorage(auditLog), audit.AsyncOptions{
		BufferSize: cfg.AuditBufferSize,
		BatchSize:  cfg.AuditBatchSize,
	})
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeWriter(drainCtx); err != nil {
			log.Warn("audit drain incomplete", logger.Error(err))
		}
	}()
	engineOpts = append(engineOpts, authz.WithAuditSink(audit.NewRecorder(writer, audit.WithLogger(auditLog))))

	engine := authz.New(store, store, engineOpts...)

	router := authzhttp.NewHandler(log.With(logger.Component("http")), engine).Router()
	router.Get("/healthz", httpserver.HealthCheckHandler(log, probes...))

	return httpserver.New(cfg.HTTP, log).Run(ctx, router)
}
