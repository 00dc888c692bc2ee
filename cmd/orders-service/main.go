package main

import (
	"fmt"
	"os"

	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/auth"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/config"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/db"
	httphandler "github.com/ABFORTI/UPPER-CONTROL-sub001/internal/http"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/http/middleware"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/logger"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/notify"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/pricing"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/repository"
	"github.com/ABFORTI/UPPER-CONTROL-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store := repository.New(database)
	notifier := notify.NewLogNotifier(log)
	catalog := pricing.NewStaticCatalog(cfg.Billing.DefaultUnitPrice)

	orderService := service.NewOrderService(store, catalog, log)
	ledgerService := service.NewLedgerService(store, log)
	splitService := service.NewSplitService(store, notifier, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(orderService, ledgerService, splitService, cfg.Billing.DefaultTaxRate, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting orders service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
