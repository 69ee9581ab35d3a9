package api

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"nft_marketplace/internal/marketplace"
	"nft_marketplace/internal/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// marketHandler holds the marketplace and registry services and implements
// the HTTP handlers for their operations.
type marketHandler struct {
	market   *marketplace.Service
	registry *registry.Registry
	logger   *zap.Logger
}

// NewMarketHandler creates a new marketplace handler.
func NewMarketHandler(market *marketplace.Service, reg *registry.Registry, logger *zap.Logger) *marketHandler {
	return &marketHandler{
		market:   market,
		registry: reg,
		logger:   logger,
	}
}

// Amounts travel as decimal strings so arbitrary-precision values survive the
// JSON layer.
type createSaleRequest struct {
	Seller        string `json:"seller"`
	IsUniqueAsset bool   `json:"is_unique_asset"`
	AssetContract string `json:"asset_contract"`
	NFTID         uint64 `json:"nft_id"`
	Amount        string `json:"amount"`
	StartTime     int64  `json:"start_time"`
	EndTime       int64  `json:"end_time"`
	UnitPrice     string `json:"unit_price"`
	Currency      string `json:"currency"`
}

type buyRequest struct {
	Buyer             string `json:"buyer"`
	Recipient         string `json:"recipient"`
	AmountToBuy       string `json:"amount_to_buy"`
	AmountFromBalance string `json:"amount_from_balance"`
}

type depositRequest struct {
	Owner    string `json:"owner"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type currencyStatusRequest struct {
	Caller   string `json:"caller"`
	Currency string `json:"currency"`
	Approved bool   `json:"approved"`
}

type feeInfoRequest struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	RateBps   uint64 `json:"rate_bps"`
}

// handleCreateSale handles the POST /sales endpoint.
func (h *marketHandler) handleCreateSale(ctx *gin.Context) {
	var req createSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	amount, ok := parseBig(req.Amount)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	unitPrice, ok := parseBig(req.UnitPrice)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_price"})
		return
	}

	saleID, err := h.market.CreateSale(req.Seller, marketplace.CreateSaleParams{
		IsUniqueAsset: req.IsUniqueAsset,
		AssetContract: req.AssetContract,
		NFTID:         req.NFTID,
		Amount:        amount,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		UnitPrice:     unitPrice,
		Currency:      req.Currency,
	})
	if err != nil {
		h.logger.Error("failed to create sale", zap.String("seller", req.Seller), zap.Error(err))
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"sale_id": saleID})
}

// handleBuy handles the POST /sales/:id/buy endpoint.
func (h *marketHandler) handleBuy(ctx *gin.Context) {
	saleID, ok := saleIDParam(ctx)
	if !ok {
		return
	}
	var req buyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	amountToBuy, ok := parseBig(req.AmountToBuy)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_to_buy"})
		return
	}
	amountFromBalance := new(big.Int)
	if req.AmountFromBalance != "" {
		if amountFromBalance, ok = parseBig(req.AmountFromBalance); !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_from_balance"})
			return
		}
	}

	if err := h.market.Buy(req.Buyer, saleID, req.Recipient, amountToBuy, amountFromBalance); err != nil {
		h.logger.Error("failed to buy", zap.Uint64("sale_id", saleID), zap.String("buyer", req.Buyer), zap.Error(err))
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, h.market.Sales(saleID))
}

// handleDeposit handles the POST /deposits endpoint.
func (h *marketHandler) handleDeposit(ctx *gin.Context) {
	var req depositRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	amount, ok := parseBig(req.Amount)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	if err := h.market.Deposit(req.Owner, req.Currency, amount); err != nil {
		h.logger.Error("failed to deposit", zap.String("owner", req.Owner), zap.Error(err))
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"owner":    req.Owner,
		"currency": req.Currency,
		"balance":  h.market.BalanceOf(req.Owner, req.Currency),
	})
}

// handleGetBalance handles the GET /balances endpoint.
func (h *marketHandler) handleGetBalance(ctx *gin.Context) {
	owner := ctx.Query("owner")
	currency := ctx.Query("currency")
	ctx.JSON(http.StatusOK, gin.H{
		"owner":    owner,
		"currency": currency,
		"balance":  h.market.BalanceOf(owner, currency),
	})
}

// handleGetSale handles the GET /sales/:id endpoint. Unknown ids return the
// zero record, matching the batch-read convention.
func (h *marketHandler) handleGetSale(ctx *gin.Context) {
	saleID, ok := saleIDParam(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, h.market.Sales(saleID))
}

// handleGetSaleStatus handles the GET /sales/:id/status endpoint.
func (h *marketHandler) handleGetSaleStatus(ctx *gin.Context) {
	saleID, ok := saleIDParam(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"sale_id": saleID,
		"status":  h.market.GetSaleStatus(saleID),
	})
}

// handleGetSales handles the GET /sales?from=&to= endpoint.
func (h *marketHandler) handleGetSales(ctx *gin.Context) {
	from, err := strconv.ParseUint(ctx.DefaultQuery("from", "1"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid from id"})
		return
	}
	to, err := strconv.ParseUint(ctx.DefaultQuery("to", "0"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid to id"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": h.market.GetSales(from, to)})
}

// handleSetCurrencyStatus handles the POST /currencies endpoint.
func (h *marketHandler) handleSetCurrencyStatus(ctx *gin.Context) {
	var req currencyStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.registry.SetCurrencyStatus(req.Caller, req.Currency, req.Approved); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"currency": req.Currency,
		"approved": req.Approved,
	})
}

// handleGetCurrency handles the GET /currencies/:address endpoint.
func (h *marketHandler) handleGetCurrency(ctx *gin.Context) {
	address := ctx.Param("address")
	ctx.JSON(http.StatusOK, gin.H{
		"currency": address,
		"approved": h.registry.ApprovedCurrencies(address),
	})
}

// handleSetFeeInfo handles the PUT /fees endpoint.
func (h *marketHandler) handleSetFeeInfo(ctx *gin.Context) {
	var req feeInfoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.registry.SetFeeInfo(req.Caller, req.Recipient, req.RateBps); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"recipient": req.Recipient,
		"rate_bps":  req.RateBps,
	})
}

// handleFeeInfo handles the GET /fees?gross= endpoint.
func (h *marketHandler) handleFeeInfo(ctx *gin.Context) {
	gross, ok := parseBig(ctx.Query("gross"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid gross amount"})
		return
	}
	recipient, fee := h.registry.FeeInfo(gross)
	ctx.JSON(http.StatusOK, gin.H{
		"recipient": recipient,
		"fee":       fee,
	})
}

func (h *marketHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotOwner):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, marketplace.ErrCurrencyNotApproved),
		errors.Is(err, marketplace.ErrInvalidSaleParameters),
		errors.Is(err, marketplace.ErrInvalidAmount),
		errors.Is(err, registry.ErrInvalidFeeRate):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, marketplace.ErrSaleNotActive),
		errors.Is(err, marketplace.ErrQuantityExceeded),
		errors.Is(err, marketplace.ErrInsufficientBalance),
		errors.Is(err, marketplace.ErrEscrowTransferFailed),
		errors.Is(err, marketplace.ErrPaymentTransferFailed):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func saleIDParam(ctx *gin.Context) (uint64, bool) {
	saleID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale id"})
		return 0, false
	}
	return saleID, true
}

// parseBig parses a non-negative decimal amount.
func parseBig(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}
