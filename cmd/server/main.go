package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/imcore/internal/chat"
	"github.com/Tyrowin/imcore/internal/config"
	"github.com/Tyrowin/imcore/internal/logging"
	"github.com/Tyrowin/imcore/internal/registry"
	"github.com/Tyrowin/imcore/internal/router"
	"github.com/Tyrowin/imcore/internal/server"
	"github.com/Tyrowin/imcore/internal/store"
	"github.com/Tyrowin/imcore/internal/store/badgerstore"
	"github.com/Tyrowin/imcore/internal/store/mongostore"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML/JSON config file (optional)")
	groupsPath := flag.String("groups", "", "JSON file of groups to upsert at startup (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // best-effort flush

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *groupsPath, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, groupsPath string, logger *zap.Logger) error {
	st, err := openStore(ctx, cfg.Store, logger.Named("store"))
	if err != nil {
		return err
	}
	if groupsPath != "" {
		if err := seedGroups(ctx, st, groupsPath); err != nil {
			_ = st.Close(context.Background())
			return err
		}
	}

	reg := registry.New(logger.Named("registry"))
	routeMetrics := router.NewMetrics(prometheus.DefaultRegisterer)
	persister := router.NewPersister(st, router.PersisterConfig{
		Workers: cfg.Persist.Workers,
		Queue:   cfg.Persist.Queue,
		Timeout: cfg.Persist.Timeout,
	}, logger.Named("persist"), routeMetrics)
	rt := router.New(reg, st, persister, logger.Named("router"), routeMetrics,
		router.WithLookupTimeout(cfg.Persist.Timeout))

	manager := server.NewManager(reg, rt, server.ManagerConfigFrom(cfg), logger.Named("lifecycle"),
		server.NewMetrics(prometheus.DefaultRegisterer))
	api := server.NewServer(cfg, manager, st, prometheus.DefaultGatherer, logger.Named("http"))
	httpServer := server.CreateServer(cfg.Addr(), api.Routes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartServer(httpServer, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(cfg, httpServer, manager, persister, st, logger)
	})
	return g.Wait()
}

// shutdown stops HTTP accept, closes every websocket, drains pending writes
// and finally closes the store, all within the grace period.
func shutdown(cfg config.Config, httpServer *http.Server, manager *server.Manager, persister *router.Persister, st store.Store, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(server.ShutdownServer(ctx, httpServer, logger))
	keep(manager.Shutdown(ctx))
	keep(persister.Close(ctx))
	keep(st.Close(ctx))
	if firstErr != nil {
		logger.Warn("shutdown finished with errors", zap.Error(firstErr))
	}
	return firstErr
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		logger.Info("opening mongo store", zap.String("database", cfg.MongoDatabase))
		s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		logger.Info("opening badger store", zap.String("path", cfg.BadgerPath))
		if err := os.MkdirAll(cfg.BadgerPath, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		s, err := badgerstore.Open(cfg.BadgerPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func seedGroups(ctx context.Context, st store.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read groups: %w", err)
	}
	var groups []chat.Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return fmt.Errorf("parse groups %s: %w", path, err)
	}
	for _, g := range groups {
		if err := st.SaveGroup(ctx, g); err != nil {
			return fmt.Errorf("save group %s: %w", g.TeamID, err)
		}
	}
	return nil
}
