// Package app wires configuration, catalog, optimizer and transports into a
// runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	lineupapi "github.com/kilianp07/lineup/api/lineup"
	"github.com/kilianp07/lineup/config"
	"github.com/kilianp07/lineup/core/catalog"
	coremetrics "github.com/kilianp07/lineup/core/metrics"
	coremon "github.com/kilianp07/lineup/core/monitoring"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/core/requestlog"
	"github.com/kilianp07/lineup/infra/catalogstore"
	"github.com/kilianp07/lineup/infra/logger"
	"github.com/kilianp07/lineup/infra/metrics"
	"github.com/kilianp07/lineup/infra/monitoring"
	"github.com/kilianp07/lineup/infra/mqtt"
)

// Service serves lineup requests over HTTP and, when enabled, MQTT.
type Service struct {
	Engine  *optimizer.Engine
	Catalog *catalog.Catalog

	cfg      *config.Config
	handler  http.Handler
	async    *metrics.AsyncSink
	reqlog   requestlog.Store
	closeLog func() error
	log      logger.Logger

	mu        sync.Mutex
	transport *mqtt.Transport
	addr      net.Addr
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	closeLog, err := logger.Setup(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	cat, err := LoadCatalog(context.Background(), cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	var async *metrics.AsyncSink
	if _, nop := sink.(coremetrics.NopSink); !nop {
		async = metrics.NewAsyncSink(context.Background(), sink, cfg.Metrics.AsyncBuffer)
		sink = async
	}

	reqlog, err := requestlog.New(cfg.RequestLog)
	if err != nil {
		return nil, fmt.Errorf("request log: %w", err)
	}

	engine, err := optimizer.NewEngine(cat, cfg.Solver, sink, logger.New("optimizer"), optimizer.WithRequestLog(reqlog))
	if err != nil {
		_ = reqlog.Close()
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	logg.Infof("catalog %s loaded from %s: %d drivers, %d constructors",
		cat.Season(), cfg.Catalog.Source, len(cat.Individuals()), len(cat.Composites()))

	var history requestlog.Store
	if _, nop := reqlog.(requestlog.NopStore); !nop {
		history = reqlog
	}
	return &Service{
		Engine:   engine,
		Catalog:  cat,
		cfg:      cfg,
		handler:  lineupapi.NewRouter(engine, cat, history),
		async:    async,
		reqlog:   reqlog,
		closeLog: closeLog,
		log:      logg,
	}, nil
}

// LoadCatalog resolves the configured catalog source.
func LoadCatalog(ctx context.Context, cfg config.CatalogConfig) (*catalog.Catalog, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Source {
	case config.CatalogFile:
		return catalog.LoadFile(cfg.Path)
	case config.CatalogSQLite:
		store, err := catalogstore.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return store.Load(ctx, cfg.Season)
	default:
		return catalog.Default(), nil
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler }

// Addr returns the address the HTTP server listens on once Run has started.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run starts the HTTP server, the optional MQTT transport and the
// Prometheus endpoint, and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cfg.MQTT.Enabled {
		t, err := mqtt.NewTransport(s.cfg.MQTT, s.Engine)
		if err != nil {
			return fmt.Errorf("mqtt transport: %w", err)
		}
		s.mu.Lock()
		s.transport = t
		s.mu.Unlock()
		go func() { _ = t.Run(ctx) }()
	}

	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http api listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.mu.Lock()
	t := s.transport
	s.transport = nil
	s.mu.Unlock()
	if t != nil {
		t.Close()
	}
	if s.async != nil {
		s.async.Close()
	}
	var errs []error
	if err := s.reqlog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("request log: %w", err))
	}
	coremon.Flush(2 * time.Second)
	if err := s.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("log file: %w", err))
	}
	return errors.Join(errs...)
}
