package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"nft_marketplace/internal/event"

	"go.uber.org/zap"
)

// ErrNotOwner is returned when a non-owner attempts a registry mutation.
var ErrNotOwner = errors.New("caller is not the registry owner")

// ErrInvalidFeeRate is returned when a fee rate above 100% is configured.
var ErrInvalidFeeRate = errors.New("fee rate exceeds 10000 basis points")

// feeDenominator is the basis-point scale of the fee rate.
const feeDenominator = 10000

// CurrencyStatusPayload is the payload of a currency.status_changed event.
type CurrencyStatusPayload struct {
	Currency string `json:"currency"`
	Approved bool   `json:"approved"`
}

// FeeInfoPayload is the payload of a registry.fee_changed event.
type FeeInfoPayload struct {
	Recipient string `json:"recipient"`
	RateBps   uint64 `json:"rate_bps"`
}

// Registry is the source of truth for accepted payment currencies and the
// protocol fee schedule. A single owner, fixed at construction, may mutate it.
type Registry struct {
	mu           sync.RWMutex
	owner        string
	approved     map[string]bool
	feeRecipient string
	feeRateBps   uint64
	events       *event.Emitter
	logger       *zap.Logger
}

// New creates a Registry owned by `owner` with the given fee schedule.
func New(owner, feeRecipient string, feeRateBps uint64, events *event.Emitter, logger *zap.Logger) (*Registry, error) {
	if owner == "" {
		return nil, errors.New("registry owner is required")
	}
	if feeRateBps > feeDenominator {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFeeRate, feeRateBps)
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Registry{
		owner:        owner,
		approved:     make(map[string]bool),
		feeRecipient: feeRecipient,
		feeRateBps:   feeRateBps,
		events:       events,
		logger:       logger,
	}, nil
}

// Owner returns the privileged owner address.
func (r *Registry) Owner() string {
	return r.owner
}

// SetCurrencyStatus flags a currency as accepted (or not) for new sales.
// Re-setting the current value is legal and re-emits the notification.
func (r *Registry) SetCurrencyStatus(caller, currency string, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		r.logger.Warn("currency status change rejected",
			zap.String("caller", caller),
			zap.String("currency", currency),
		)
		return ErrNotOwner
	}

	r.approved[currency] = approved
	r.logger.Info("currency status changed",
		zap.String("currency", currency),
		zap.Bool("approved", approved),
	)
	if r.events != nil {
		r.events.Emit(event.CurrencyStatusChanged, CurrencyStatusPayload{
			Currency: currency,
			Approved: approved,
		})
	}
	return nil
}

// ApprovedCurrencies reports whether a currency is accepted. Unknown
// currencies are not.
func (r *Registry) ApprovedCurrencies(currency string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.approved[currency]
}

// SetFeeInfo replaces the fee schedule.
func (r *Registry) SetFeeInfo(caller, recipient string, rateBps uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrNotOwner
	}
	if rateBps > feeDenominator {
		return fmt.Errorf("%w: %d", ErrInvalidFeeRate, rateBps)
	}

	r.feeRecipient = recipient
	r.feeRateBps = rateBps
	r.logger.Info("fee schedule changed",
		zap.String("recipient", recipient),
		zap.Uint64("rate_bps", rateBps),
	)
	if r.events != nil {
		r.events.Emit(event.FeeInfoChanged, FeeInfoPayload{
			Recipient: recipient,
			RateBps:   rateBps,
		})
	}
	return nil
}

// FeeInfo computes the protocol fee for a gross payment amount. The fee is
// gross * rate / 10000 rounded down, so 0 <= fee <= gross for any configured
// rate. A nil or negative gross yields a zero fee.
func (r *Registry) FeeInfo(gross *big.Int) (string, *big.Int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fee := new(big.Int)
	if gross != nil && gross.Sign() > 0 {
		fee.Mul(gross, new(big.Int).SetUint64(r.feeRateBps))
		fee.Div(fee, big.NewInt(feeDenominator))
	}
	return r.feeRecipient, fee
}
