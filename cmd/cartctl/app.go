package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartstore/internal/cart"
	"github.com/nikolayk812/cartstore/internal/catalog"
	"github.com/nikolayk812/cartstore/internal/config"
	"github.com/nikolayk812/cartstore/internal/logger"
	"github.com/nikolayk812/cartstore/internal/metrics"
	"github.com/nikolayk812/cartstore/internal/migrations"
	"github.com/nikolayk812/cartstore/internal/notify"
	"github.com/nikolayk812/cartstore/internal/port"
	"github.com/nikolayk812/cartstore/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

const connectTimeout = 5 * time.Second

// app is the composition root: it owns the store and every resource behind it.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	locale   language.Tag
	store    *cart.Store
	registry *prometheus.Registry
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.locale, err = language.Parse(cfg.App.Locale)
	if err != nil {
		return nil, fmt.Errorf("locale[%s] is not valid: %w", cfg.App.Locale, err)
	}

	snapshots, err := a.openSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	unit, err := currency.ParseISO(cfg.Catalog.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", cfg.Catalog.Currency, err)
	}

	catalogClient, err := catalog.New(catalog.Options{
		BaseURL:         cfg.Catalog.BaseURL,
		Timeout:         cfg.Catalog.Timeout,
		Currency:        unit,
		BreakerFailures: cfg.Catalog.BreakerFailures,
		BreakerOpenFor:  cfg.Catalog.BreakerOpenFor,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog.New: %w", err)
	}
	a.closers = append(a.closers, catalogClient.Close)

	a.store, err = cart.New(ctx, cart.Params{
		Catalog:   catalogClient,
		Snapshots: snapshots,
		Notifier:  notify.Multi{notify.NewWriter(os.Stderr, "error: "), notify.NewLog(log)},
		Logger:    log,
		Recorder:  metrics.NewCartMetrics(a.registry),
		Key:       cfg.Storage.Key,
		Currency:  unit,
	})
	if err != nil {
		return nil, fmt.Errorf("cart.New: %w", err)
	}

	return a, nil
}

func (a *app) openSnapshots(ctx context.Context) (port.SnapshotRepository, error) {
	storage := a.cfg.Storage

	switch storage.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(storage.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.log.Error(ctx, "error closing redis", err)
			}
		})

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return repository.NewRedis(client, storage.RedisTTL), nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		err = repository.WithTx(ctx, pool, func(tx pgx.Tx) error {
			return migrations.Up(ctx, tx)
		})
		if err != nil {
			return nil, fmt.Errorf("migrations.Up: %w", err)
		}
		return repository.NewPostgres(pool), nil

	default:
		return repository.NewFile(storage.FilePath), nil
	}
}

func (a *app) pushMetrics(ctx context.Context) {
	if err := metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job, a.registry); err != nil {
		a.log.Error(ctx, "failed to push metrics", err)
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
