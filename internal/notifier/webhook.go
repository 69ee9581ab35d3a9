package notifier

import (
	"net/http"
	"time"

	"nft_marketplace/internal/event"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Webhook delivers marketplace events to an external observer as JSON POSTs.
// Delivery runs outside the emitter's synchronous dispatch so slow endpoints
// never stall settlement.
type Webhook struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhook creates a webhook notifier for the given URL.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)
	return &Webhook{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Attach subscribes the notifier to every event the emitter produces.
func (w *Webhook) Attach(em *event.Emitter) {
	em.SubscribeAll(func(ev event.Event) {
		go w.deliver(ev)
	})
}

func (w *Webhook) deliver(ev event.Event) {
	resp, err := w.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(ev).
		Post(w.url)
	if err != nil {
		w.logger.Warn("webhook delivery failed",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		w.logger.Warn("webhook endpoint rejected event",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.Int("status", resp.StatusCode()),
		)
	}
}
