// Entry point; loads config, wires module services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gofer/internal/config"
	httptransport "gofer/internal/http"
	"gofer/internal/infra"
	"gofer/internal/maps"
	"gofer/internal/modules/courier"
	"gofer/internal/modules/dispatch"
	"gofer/internal/modules/matching"
	"gofer/internal/modules/order"
	"gofer/internal/modules/pricing"
	"gofer/internal/notify"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	pricingStore := pricing.NewStore(dbPool)
	pricingCfg, err := pricingStore.LoadConfig(ctx)
	if err != nil {
		log.Warn("load pricing overrides failed, using defaults", "error", err)
	}
	pricingCfg.SplitRoundedFee = cfg.Pricing.SplitRoundedFee
	pricingSvc := pricing.NewService(pricingStore, pricingCfg)

	matchingCfg := matching.DefaultConfig()
	matchingCfg.RadiusKm = cfg.Matching.RadiusKm
	matchingCfg.LocationMaxAge = cfg.Matching.LocationMaxAge
	matchingStore := matching.NewStore(redisClient)

	courierStore := courier.NewStore(dbPool)
	courierSvc := courier.NewService(courierStore, matchingStore)

	matchingSvc := matching.NewService(matchingStore, courierSvc, matchingCfg)

	hub := notify.NewHub(log)

	var geocoder order.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			log.Error("init geocoder", "error", err)
			os.Exit(1)
		}
		geocoder = g
	} else {
		log.Warn("no maps api key; orders must carry coordinates")
	}

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, pricingSvc, geocoder, hub)

	dispatchCfg := dispatch.DefaultConfig()
	dispatchCfg.AcceptTimeout = cfg.Dispatch.AcceptTimeout
	dispatchCfg.MaxOfferRounds = cfg.Dispatch.MaxOfferRounds
	dispatchStore := dispatch.NewStore(redisClient)
	coordinator := dispatch.NewCoordinator(dispatchCfg, dispatchStore, matchingSvc, orderSvc, courierSvc, hub, log)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Order:    orderSvc,
		Courier:  courierSvc,
		Pricing:  pricingSvc,
		Dispatch: coordinator,
		Hub:      hub,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", "error", err)
		os.Exit(1)
	}
}
