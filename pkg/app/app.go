package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/lotstream/lotstream/pkg/adapters/archivestore"
	"github.com/lotstream/lotstream/pkg/adapters/catalogstore"
	"github.com/lotstream/lotstream/pkg/adapters/filequeue"
	"github.com/lotstream/lotstream/pkg/adapters/httpin"
	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/ingest"
	"github.com/lotstream/lotstream/pkg/o11y/tracing"
	"github.com/lotstream/lotstream/pkg/worker"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	conf         *config.Config
	logger       *slog.Logger
	ctx          context.Context
	stopFunc     context.CancelFunc
	shutdownDone chan struct{}
}

func New(c *config.Config, logger *slog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		conf:         c,
		logger:       logger,
		ctx:          ctx,
		stopFunc:     cancel,
		shutdownDone: make(chan struct{}),
	}
}

func (a *App) Start() {
	defer close(a.shutdownDone)
	metricRegistry := prometheus.NewRegistry()
	registerDefaultMetrics(metricRegistry)

	store := createArchiveStore(a.logger, a.conf, metricRegistry)
	queue := createQueue(a.logger, a.conf, metricRegistry)
	catalog := createCatalog(a.ctx, a.logger, a.conf)

	tracer, tracerShutdown := tracing.NewTracer(a.conf.O11y)

	ingestor := ingest.New(a.logger, store, queue)
	api := httpin.NewAPI(a.logger, *a.conf, metricRegistry, tracer, a.conf.Version, ingestor)

	apiShutdownDone := make(chan struct{})

	//The shutdown of rungroup seems to be executed from a single goroutine. Meaning that if a
	//waitgroup is added on some interrupt function, it might hang forever.
	var g run.Group

	a.addShutdownRelatedActors(&g)

	g.Add(
		func() error {
			defer close(apiShutdownDone)
			err := api.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("api listening and serving failed", "error", err)
			}

			return err
		},
		func(error) {
			a.logger.Info("shutting down api")
			if err := api.Shutdown(); err != nil {
				a.logger.Error("api shutdown failed", "error", err)
			}
		},
	)

	if a.conf.Worker.Enabled {
		reconciler := worker.NewReconciler(a.logger, catalog, catalog, store, store.Name())
		wrkr := worker.NewWorker(a.logger, queue, reconciler, a.conf.Worker, metricRegistry)

		workerContext, workerCancel := context.WithCancel(context.Background())
		g.Add(
			func() error {
				wrkr.Run(workerContext)
				return nil
			},
			func(error) {
				<-apiShutdownDone
				workerCancel()
			},
		)
	}

	err := g.Run()
	if err != nil {
		a.logger.Error("something went wrong when running the components", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown failed", "error", err)
	}

	if closer, ok := catalog.(interface{ Close() }); ok {
		closer.Close()
	}

	a.logger.Info("lotstream stopped")
}

func (a *App) addShutdownRelatedActors(g *run.Group) {
	signalsCh := make(chan os.Signal, 2)
	signal.Notify(signalsCh, syscall.SIGINT, syscall.SIGTERM)

	g.Add(func() error {
		select {
		case s := <-signalsCh:
			a.logger.Info("received signal, shutting down", "signal", s.String())
		case <-a.ctx.Done():
		}
		return nil
	}, func(error) {
		a.stopFunc()
		signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	})
}

// Stop triggers a graceful shutdown and returns a channel that is closed
// once Start has fully returned.
func (a *App) Stop() <-chan struct{} {
	a.logger.Debug("app stop called")
	a.stopFunc()
	return a.shutdownDone
}

func registerDefaultMetrics(registry *prometheus.Registry) {
	registry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
		),
	)
}

func createArchiveStore(
	l *slog.Logger, c *config.Config, metricRegistry *prometheus.Registry,
) archivestore.StoreWithMetadata {
	store, err := archivestore.New(l, metricRegistry, &c.Storage)
	if err != nil {
		l.Error("error creating archive store", "error", err)
		panic(err)
	}

	return store
}

func createQueue(
	l *slog.Logger, c *config.Config, metricRegistry *prometheus.Registry,
) filequeue.QueueWithMetadata {
	queue, err := filequeue.New(l, metricRegistry, &c.Queue)
	if err != nil {
		l.Error("error creating file queue", "error", err)
		panic(err)
	}

	return queue
}

func createCatalog(
	ctx context.Context, l *slog.Logger, c *config.Config,
) catalogstore.CatalogWithMetadata {
	catalog, err := catalogstore.New(ctx, l, &c.Catalog)
	if err != nil {
		l.Error("error creating catalog store", "error", err)
		panic(err)
	}

	return catalog
}
