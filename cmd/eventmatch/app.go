package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulexconde/eventmatch/internal/auth"
	"github.com/paulexconde/eventmatch/internal/config"
	"github.com/paulexconde/eventmatch/internal/handler"
	"github.com/paulexconde/eventmatch/internal/metrics"
	"github.com/paulexconde/eventmatch/internal/notify"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/paulexconde/eventmatch/internal/pkg/workerpool"
	"github.com/paulexconde/eventmatch/internal/qrcode"
	"github.com/paulexconde/eventmatch/internal/router"
	"github.com/paulexconde/eventmatch/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const readHeaderTimeout = 10 * time.Second

// app is the wired process shared by serve and the maintenance commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.DB
	registry *prometheus.Registry
	pool     *workerpool.WorkerPool
	notifier notify.Notifier
	tokens   *auth.Tokens

	hosts        services.HostService
	events       services.EventService
	registration services.RegistrationService
	qa           services.QAService
	templates    services.TemplateService
	qrcodes      services.QRCodeService
}

// newApp loads configuration, opens and migrates the database and builds
// every service. withNotifier connects NATS when configured; maintenance
// commands log notifications instead.
func newApp(ctx context.Context, withNotifier bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	// The pool outlives ctx so queued jobs can drain during shutdown.
	a.pool = workerpool.NewWorkerPool(context.Background(), logger, cfg.Workers, cfg.QueueSize)
	a.pool.OnDrop = m.JobDropped

	a.notifier = notify.NewLog(logger)
	if withNotifier && cfg.NATSURL != "" {
		nc, err := notify.NewNATS(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			a.close()
			return nil, err
		}
		a.notifier = nc
		logger.Info("publishing notifications to NATS", "url", cfg.NATSURL, "prefix", cfg.NATSSubjectPrefix)
	}
	dispatcher := notify.NewDispatcher(a.notifier, a.pool, logger, m)

	stores := services.NewStores(db)
	questions := services.NewQuestionService(stores, nil)

	a.qrcodes = services.NewQRCodeService(stores, qrcode.NewGenerator(cfg.MediaDir, cfg.PublicBaseURL), a.pool, m, logger)
	stores.Events.SetHooks(a.qrcodes.Hooks())

	a.tokens = auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	a.hosts = services.NewHostService(stores, a.tokens, nil)
	a.events = services.NewEventService(stores, questions, dispatcher, logger, nil)
	a.registration = services.NewRegistrationService(stores, services.RegistrationDeps{
		Questions:  questions,
		Dispatcher: dispatcher,
		Metrics:    m,
		Logger:     logger,
	})
	a.qa = services.NewQAService(stores, dispatcher, m, logger, nil)
	a.templates = services.NewTemplateService(stores, questions, logger, nil)

	return a, nil
}

func (a *app) handler() http.Handler {
	return router.New(a.logger, a.tokens, a.registry, router.Handlers{
		Hosts:        handler.NewHostHandler(a.hosts, a.logger),
		Events:       handler.NewEventHandler(a.events, a.logger),
		Registration: handler.NewRegistrationHandler(a.registration, a.logger),
		QA:           handler.NewQAHandler(a.qa, a.logger),
		Templates:    handler.NewTemplateHandler(a.templates, a.logger),
	})
}

// close drains background work and releases connections.
func (a *app) close() {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		a.pool.Shutdown(ctx)
		cancel()
	}
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.logger.Error("close notifier", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("close database", "error", err)
	}
}
