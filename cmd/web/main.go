package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gitadityakumar/LiveNews/internal/catalog"
	"github.com/gitadityakumar/LiveNews/internal/channelorder"
	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/internal/common/logger"
	"github.com/gitadityakumar/LiveNews/internal/common/messaging"
	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/internal/resolver"
	"github.com/gitadityakumar/LiveNews/internal/streamcache"
	"github.com/gitadityakumar/LiveNews/internal/web/handler"
	"github.com/gitadityakumar/LiveNews/internal/web/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	mainLog := logger.NewComponentLogger(log, "web_main")

	appCfg := cfg.GetAppConfig()
	webCfg := cfg.GetWebPanelConfig()
	rabbitCfg := cfg.GetRabbitMQConfig()
	discoveryCfg := cfg.GetDiscoveryConfig()

	mainLog.WithField("config", fmt.Sprintf("%+v", *webCfg)).Debug("Web panel configuration loaded")

	cat, err := catalog.FromConfig(&cfg.Catalog)
	if err != nil {
		mainLog.WithError(err).Fatal("Invalid channel catalog")
	}

	store, err := kvstore.Open(cfg.GetStorageConfig())
	if err != nil {
		mainLog.WithError(err).Fatal("Failed to open key-value store")
	}
	defer store.Close()

	// Initialize message client
	msgClient, err := messaging.NewRabbitMQClient(rabbitCfg, log)
	if err != nil {
		mainLog.WithError(err).Fatal("Failed to create RabbitMQ client")
	}
	defer msgClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub(log)

	cache := streamcache.New(store, log)
	h := handler.NewHandler(handler.Deps{
		RabbitMQ: rabbitCfg,
		Log:      log,
		Message:  msgClient,
		Hub:      hub,
		Catalog:  cat,
		Order:    channelorder.New(store, log),
		Cache:    cache,
		Resolver: resolver.New(cat, cache, discoveryCfg.Regions()),
	})
	go hub.Run(ctx)

	if err := h.ConsumeEvents(ctx); err != nil {
		mainLog.WithError(err).Fatal("Failed to consume discovery events")
	}

	// Check environment
	if appCfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", webCfg.Host, webCfg.Port),
		Handler: r,
	}

	go func() {
		mainLog.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"storage": cfg.Storage.Driver,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.WithError(err).Fatal("Failed to start web server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	mainLog.WithField("signal", sig).Info("Received signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.WithError(err).Warn("Server shutdown incomplete")
	}
	cancel()
}
