package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"followstore/pkg/config"
	"followstore/pkg/eventbus"
	"followstore/pkg/followstore"
	"followstore/pkg/kv"
	"followstore/pkg/logging"
	"followstore/pkg/metrics"
	"followstore/pkg/scheduler"
)

func main() {
	cfgPath := flag.String("config", "./followstore.yaml", "path to config file")
	dbPath := flag.String("db", "./.followstore", "Pebble DB path")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on, empty disables it")
	flag.Parse()

	logging.Init()

	cfg := &config.Config{}
	if loaded, err := config.Load(*cfgPath); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load config: %v", err)
	}
	config.LoadEnvOverrides(cfg)
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = *dbPath
	}

	engine, err := kv.Open(cfg.Storage.DBPath, nil)
	if err != nil {
		log.Fatalf("failed to open engine at %s: %v", cfg.Storage.DBPath, err)
	}
	defer engine.Close()

	bus := eventbus.New()
	collector := metrics.NewCollector()
	store := followstore.New(engine, bus, collector, cfg.StoreConfig())
	_ = store

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(store, cfg.SchedulerConfig())
		go func() {
			if err := sched.Start(ctx); err != nil {
				logging.Error("scheduler_failed", "error", err.Error())
			}
		}()
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			logging.Info("metrics_listening", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("metrics_server_failed", "error", err.Error())
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	<-ctx.Done()
	logging.Info("followstore_shutdown")
}
