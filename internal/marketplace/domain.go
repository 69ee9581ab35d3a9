package marketplace

import (
	"errors"
	"math/big"
)

// SaleStatus is derived from the stored sale and the current time on every
// query. It is never stored.
type SaleStatus string

const (
	StatusPending SaleStatus = "PENDING"
	StatusActive  SaleStatus = "ACTIVE"
	StatusSoldOut SaleStatus = "SOLD_OUT"
	StatusExpired SaleStatus = "EXPIRED"
	StatusUnknown SaleStatus = "UNKNOWN"
)

// ErrCurrencyNotApproved is returned when a sale names a currency the registry
// does not accept.
var ErrCurrencyNotApproved = errors.New("currency not approved")

// ErrInvalidSaleParameters is returned for a bad time window, a non-positive
// quantity or price, or a quantity other than one for a unique asset.
var ErrInvalidSaleParameters = errors.New("invalid sale parameters")

// ErrSaleNotActive is returned when a purchase targets a sale outside its
// active window or one that was never created.
var ErrSaleNotActive = errors.New("sale not active")

// ErrQuantityExceeded is returned when a purchase asks for more units than
// the sale has left.
var ErrQuantityExceeded = errors.New("quantity exceeds remaining supply")

// ErrInvalidAmount is returned for non-positive or inconsistent purchase or
// deposit amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientBalance is returned when amountFromBalance exceeds what the
// buyer holds with the marketplace.
var ErrInsufficientBalance = errors.New("insufficient marketplace balance")

// ErrEscrowTransferFailed is returned when the asset collaborator rejects a
// custody transfer.
var ErrEscrowTransferFailed = errors.New("escrow transfer failed")

// ErrPaymentTransferFailed is returned when the currency collaborator rejects
// a payment transfer.
var ErrPaymentTransferFailed = errors.New("payment transfer failed")

// Sale is an escrowed listing. Only Purchased mutates after creation, and it
// only grows, never past Amount.
type Sale struct {
	ID            uint64   `json:"id"`
	NFTID         uint64   `json:"nft_id"`
	IsUniqueAsset bool     `json:"is_unique_asset"`
	AssetContract string   `json:"asset_contract"`
	Seller        string   `json:"seller"`
	Currency      string   `json:"currency"`
	Amount        *big.Int `json:"amount"`
	Purchased     *big.Int `json:"purchased"`
	StartTime     int64    `json:"start_time"`
	EndTime       int64    `json:"end_time"`
	UnitPrice     *big.Int `json:"unit_price"`
}

// Remaining returns the quantity still purchasable.
func (s *Sale) Remaining() *big.Int {
	return new(big.Int).Sub(s.Amount, s.Purchased)
}

// StatusAt derives the sale status at a unix timestamp. A fully purchased
// sale is SOLD_OUT regardless of its time window.
func (s *Sale) StatusAt(now int64) SaleStatus {
	if s.Purchased.Cmp(s.Amount) == 0 {
		return StatusSoldOut
	}
	if now < s.StartTime {
		return StatusPending
	}
	if now >= s.EndTime {
		return StatusExpired
	}
	return StatusActive
}

func (s *Sale) clone() *Sale {
	c := *s
	c.Amount = new(big.Int).Set(s.Amount)
	c.Purchased = new(big.Int).Set(s.Purchased)
	c.UnitPrice = new(big.Int).Set(s.UnitPrice)
	return &c
}

// zeroSale is the record returned for ids that were never allocated. Batch
// reads deliberately yield it instead of failing.
func zeroSale() Sale {
	return Sale{
		Amount:    new(big.Int),
		Purchased: new(big.Int),
		UnitPrice: new(big.Int),
	}
}

// SaleCreatedPayload is the payload of a sale.created event.
type SaleCreatedPayload struct {
	SaleID        uint64   `json:"sale_id"`
	Seller        string   `json:"seller"`
	AssetContract string   `json:"asset_contract"`
	NFTID         uint64   `json:"nft_id"`
	Amount        *big.Int `json:"amount"`
	UnitPrice     *big.Int `json:"unit_price"`
	Currency      string   `json:"currency"`
}

// PurchaseCompletedPayload is the payload of a sale.purchase_completed event.
type PurchaseCompletedPayload struct {
	SaleID    uint64   `json:"sale_id"`
	Quantity  *big.Int `json:"quantity"`
	Buyer     string   `json:"buyer"`
	Recipient string   `json:"recipient"`
	Gross     *big.Int `json:"gross"`
	Fee       *big.Int `json:"fee"`
}
