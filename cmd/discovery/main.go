package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitadityakumar/LiveNews/internal/catalog"
	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/internal/common/logger"
	"github.com/gitadityakumar/LiveNews/internal/common/messaging"
	"github.com/gitadityakumar/LiveNews/internal/discovery"
	"github.com/gitadityakumar/LiveNews/internal/discovery/service"
	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/internal/streamcache"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load the configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(cfg)
	mainLog := logger.NewComponentLogger(log, "discovery_main")

	appCfg := cfg.GetAppConfig()
	discoveryCfg := cfg.GetDiscoveryConfig()
	rabbitCfg := cfg.GetRabbitMQConfig()

	mainLog.WithFields(logrus.Fields{
		"app":    appCfg.Name,
		"env":    appCfg.Env,
		"config": fmt.Sprintf("%+v", *discoveryCfg),
	}).Debug("Discovery configuration loaded")

	cat, err := catalog.FromConfig(&cfg.Catalog)
	if err != nil {
		mainLog.WithError(err).Fatal("Invalid channel catalog")
	}

	store, err := kvstore.Open(cfg.GetStorageConfig().ForWorker())
	if err != nil {
		mainLog.WithError(err).Fatal("Failed to open key-value store")
	}
	defer store.Close()

	// Initialize RabbitMQ connection
	messageClient, err := messaging.NewRabbitMQClient(rabbitCfg, log)
	if err != nil {
		mainLog.WithError(err).Fatal("Failed to initialize RabbitMQ")
	}
	defer messageClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host, closeBrowser := discovery.NewChromeHost(ctx, discoveryCfg, log)
	defer closeBrowser()

	events := service.NewEventPublisher(messageClient, rabbitCfg.Exchange, log)
	controller := discovery.NewController(host, streamcache.New(store, log), cat, events, log, discovery.Options{
		ScanTimeout: discoveryCfg.ScanWindow(),
		BindingName: discoveryCfg.BindingName,
	})

	discoveryService := service.NewDiscoveryService(rabbitCfg, log, messageClient, controller, events)
	if err := discoveryService.Start(); err != nil {
		mainLog.WithError(err).Fatal("Failed to start discovery service")
	}

	mainLog.WithFields(logrus.Fields{
		"queue":   rabbitCfg.Queue.Discovery,
		"storage": cfg.Storage.Driver,
	}).Info("Discovery worker started")

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	mainLog.WithField("signal", sig).Info("Received signal, shutting down")

	discoveryService.Stop()
	cancel()
}
