package main

import (
	"fmt"

	"nft_marketplace/api"
	"nft_marketplace/internal/config"
	"nft_marketplace/internal/event"
	"nft_marketplace/internal/marketplace"
	"nft_marketplace/internal/notifier"
	"nft_marketplace/internal/registry"
	"nft_marketplace/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Built-in collaborator addresses, mirroring the contracts a deployment
// script would wire next to the marketplace.
const (
	creatureContract          = "creature"
	creatureAccessoryContract = "creature_accessory"
	mockCurrencyContract      = "mock_currency"
)

func main() {
	config.Init()
	cfg := config.Get()

	var logger *zap.Logger
	var err error
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Errorf("error initializing logger: %v", err))
	}
	defer logger.Sync()

	var storage marketplace.Storage
	if cfg.DataDir != "" {
		badgerStorage, err := marketplace.OpenBadger(cfg.DataDir)
		if err != nil {
			logger.Fatal("failed to open sale ledger", zap.String("data_dir", cfg.DataDir), zap.Error(err))
		}
		defer badgerStorage.Close()
		storage = badgerStorage
	} else {
		storage = marketplace.NewLocalStorage()
	}

	events := event.NewEmitter(logger)
	if cfg.WebhookURL != "" {
		notifier.NewWebhook(cfg.WebhookURL, logger).Attach(events)
	}

	reg, err := registry.New(cfg.RegistryOwner, cfg.FeeRecipient, cfg.FeeRateBps, events, logger)
	if err != nil {
		logger.Fatal("failed to create registry", zap.Error(err))
	}
	market, err := marketplace.NewService(storage, reg, events, logger, cfg.MarketplaceAccount)
	if err != nil {
		logger.Fatal("failed to create marketplace", zap.Error(err))
	}

	// In-process token contracts standing in for real collaborators, wired
	// the way the original deployment scripts set them up.
	market.RegisterExclusiveAsset(creatureContract, token.NewMockNFT())
	market.RegisterQuantityAsset(creatureAccessoryContract, token.NewMockMultiToken())
	market.RegisterCurrency(mockCurrencyContract, token.NewMockCurrency())
	if err := reg.SetCurrencyStatus(cfg.RegistryOwner, mockCurrencyContract, true); err != nil {
		logger.Fatal("failed to approve built-in currency", zap.Error(err))
	}

	r := gin.Default()
	api.InitRoutes(r, market, reg, logger)

	if err := r.Run(":" + cfg.Port); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
