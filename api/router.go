package api

import (
	"net/http"

	"nft_marketplace/internal/marketplace"
	"nft_marketplace/internal/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers all marketplace and registry endpoints on the given
// Gin engine. Service wiring happens in the caller so tests can drive the
// same routes against their own collaborators.
func InitRoutes(e *gin.Engine, market *marketplace.Service, reg *registry.Registry, logger *zap.Logger) {
	h := NewMarketHandler(market, reg, logger)

	e.POST("/sales", h.handleCreateSale)
	e.GET("/sales", h.handleGetSales)
	e.GET("/sales/:id", h.handleGetSale)
	e.GET("/sales/:id/status", h.handleGetSaleStatus)
	e.POST("/sales/:id/buy", h.handleBuy)

	e.POST("/deposits", h.handleDeposit)
	e.GET("/balances", h.handleGetBalance)

	e.POST("/currencies", h.handleSetCurrencyStatus)
	e.GET("/currencies/:address", h.handleGetCurrency)
	e.PUT("/fees", h.handleSetFeeInfo)
	e.GET("/fees", h.handleFeeInfo)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
