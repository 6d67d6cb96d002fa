package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	redisClient    *redis.Client
	cleanups       []func() error
	queueConsumers []func(context.Context) error
	stopConsumers  context.CancelFunc
}

// NewApp builds every component of the bookshelf and wires them together.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{
		logger: logger,
		config: config,
	}
	// registered cleanups run in reverse order.
	app.cleanups = append(app.cleanups, logWriter.Close, flusher)

	if config.UsesRedis() {
		app.redisClient, err = GetRedisClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append(app.cleanups, app.redisClient.Close)
	}

	storage, err := app.newShelfStorage()
	if err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to setup shelf storage: %s", err)
	}
	app.cleanups = append(app.cleanups, storage.Close)

	var queue Queuer
	switch config.Storage.Queue {
	case QueueRedis:
		queue = NewRedisQueue(app.redisClient)
	default:
		queue = NewMemoryQueue(config.Storage.QueueSize)
	}

	persister := NewShelfPersister(logger, storage, queue)
	initial := persister.Load(context.Background())
	logger.Info("shelf loaded", zap.Int("shelf.size", len(initial.Books)), zap.String("storage.backend", config.Storage.Backend))

	shelf := NewShelfStore(logger, initial, persister)
	catalog := NewCatalogClient(logger, &config.Catalog, nil)
	session := NewSearchSession(logger, catalog, clock)
	shelfService := NewShelfService(logger, config, session, shelf)

	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		shelfService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        router,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	consumer := NewSnapshotConsumer(logger, queue, persister)
	app.queueConsumers = []func(context.Context) error{consumer.Consume}
	return app, nil
}

// newShelfStorage opens the configured storage backend.
func (app *App) newShelfStorage() (ShelfStorage, error) {
	key := app.config.Storage.Key
	switch app.config.Storage.Backend {
	case BackendRedis:
		return NewRedisShelfStorage(app.logger, app.redisClient, key), nil
	case BackendSQLite:
		db, err := GetSQLiteClient(app.config)
		if err != nil {
			return nil, err
		}
		return NewSQLiteShelfStorage(app.logger, db, key), nil
	default:
		db, err := GetBoltDBClient(app.config)
		if err != nil {
			return nil, err
		}
		return NewBoltShelfStorage(app.logger, &app.config.BoltDB, db, key), nil
	}
}

// Run starts the api web server, the snapshot consumer and a goroutine
// which is responsible to stop them.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	// consumers outlive the server so snapshots pushed by in-flight requests are written.
	var cCtx context.Context
	cCtx, app.stopConsumers = context.WithCancel(context.Background())
	defer app.stopConsumers()
	for _, consume := range app.queueConsumers {
		consume := consume
		g.Go(func() error { return consume(cCtx) })
	}
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions, last registered first.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](); err != nil && !errors.Is(err, os.ErrClosed) {
			fmt.Fprintln(os.Stderr, "cleanup failed:", err)
		}
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		if app.stopConsumers != nil {
			app.stopConsumers()
		}
		return nil
	}
}
