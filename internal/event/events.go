package event

import "time"

// Type identifies a notification emitted by the marketplace or the registry.
type Type string

const (
	SaleCreated           Type = "sale.created"
	PurchaseCompleted     Type = "sale.purchase_completed"
	CurrencyStatusChanged Type = "currency.status_changed"
	FeeInfoChanged        Type = "registry.fee_changed"
)

// Event is the envelope delivered to listeners. Payload holds the
// notification-specific fields declared by the emitting package.
type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	EmittedAt time.Time   `json:"emitted_at"`
	Payload   interface{} `json:"payload"`
}
