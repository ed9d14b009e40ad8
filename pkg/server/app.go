package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	svccache "EMAScan/internal/service/cache"
	"EMAScan/internal/usecase"
	"EMAScan/pkg/config"
	xhttp "EMAScan/pkg/http"
	applogger "EMAScan/pkg/logger"
)

// Lifetime is the root context of a running process. Background work started
// outside of Run (for example scans triggered over HTTP) derives from it.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewLifetime() *Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifetime{ctx: ctx, cancel: cancel}
}

func (l *Lifetime) Context() context.Context { return l.ctx }

// Cancel ends the lifetime. Safe to call more than once.
func (l *Lifetime) Cancel() { l.cancel() }

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	life       *Lifetime
	pipeline   *usecase.ResultPipeline
	cache      *svccache.ResultCache
	poller     *usecase.StatusPoller
	feed       *usecase.PriceFeed
	scheduler  *usecase.Scheduler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. feed and scheduler may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	life *Lifetime,
	pipeline *usecase.ResultPipeline,
	cache *svccache.ResultCache,
	poller *usecase.StatusPoller,
	feed *usecase.PriceFeed,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		life:       life,
		pipeline:   pipeline,
		cache:      cache,
		poller:     poller,
		feed:       feed,
		scheduler:  scheduler,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted or ctx is done.
func (a *App) Run(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A signal or a cancelled parent ends the lifetime.
	unlink := context.AfterFunc(sigCtx, a.life.Cancel)
	defer unlink()
	ctx = a.life.Context()

	a.restore(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("status poller stopped", applogger.Error(err))
		}
	}()

	if a.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("price feed stopped", applogger.Error(err))
			}
		}()
		a.log.Info("price feed started", applogger.String("url", a.cfg.PriceFeed.URL))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			a.life.Cancel()
			wg.Wait()
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.life.Cancel()
		wg.Wait()
		return err
	}
	a.log.Info("dashboard api listening", applogger.String("addr", a.httpServer.Addr()))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(&wg)
}

// restore loads the cached result set and, when configured, the database-backed view.
func (a *App) restore(ctx context.Context) {
	if d, ok := a.pipeline.RestoreFromCache(ctx); ok {
		a.poller.MarkLoaded()
		age, _ := a.cache.Age(ctx)
		a.log.Info("restored results from cache",
			applogger.Int("assets", len(d.Assets)),
			applogger.Duration("age_ms", age),
		)
	}

	if !a.cfg.Scanner.Database {
		return
	}
	d, err := a.pipeline.LoadFromDatabase(ctx)
	if err != nil {
		a.log.Warn("database load failed", applogger.Error(err))
		return
	}
	a.poller.MarkLoaded()
	a.log.Info("loaded results from database", applogger.Int("assets", len(d.Assets)))
}

// shutdown gracefully stops all services.
func (a *App) shutdown(wg *sync.WaitGroup) error {
	a.log.Info("shutting down...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	var err error
	if err = a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	wg.Wait()
	a.log.RemoveCollector()
	a.log.Info("shutdown complete")
	return err
}
