package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/shopify"
)

const (
	TopicSubscriptionUpdate = "app_subscriptions/update"
	TopicAppUninstalled     = "app/uninstalled"
)

// Outcome describes what happened to a verified delivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

type syncer interface {
	SyncManagedSubscription(ctx context.Context, domain string, p Payload) (Result, error)
}

type WebhookProcessor struct {
	secret string
	sync   syncer
	ledger DeliveryLedger
	log    *slog.Logger
}

type WebhookOption func(*WebhookProcessor)

func WithDeliveryLedger(l DeliveryLedger) WebhookOption {
	return func(p *WebhookProcessor) { p.ledger = l }
}

func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(p *WebhookProcessor) {
		if l != nil {
			p.log = l
		}
	}
}

func NewWebhookProcessor(secret string, s syncer, opts ...WebhookOption) *WebhookProcessor {
	p := &WebhookProcessor{secret: secret, sync: s, log: logger.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Component("billing.webhook"))
	return p
}

// Process verifies and applies one delivery. Only verification and payload
// errors are returned; sync failures are already recorded on the shop and
// reported as OutcomeFailed. A failed delivery is not remembered by the
// ledger, so Shopify's retry of it is applied rather than skipped.
func (p *WebhookProcessor) Process(ctx context.Context, h http.Header, body []byte) (Outcome, error) {
	if err := shopify.VerifyWebhook(p.secret, body, h.Get(shopify.HeaderHmac)); err != nil {
		return "", errors.Join(ErrInvalidWebhook, err)
	}
	domain, err := shopify.NormalizeShopDomain(h.Get(shopify.HeaderShopDomain))
	if err != nil {
		return "", errors.Join(ErrInvalidWebhook, err)
	}

	topic := h.Get(shopify.HeaderTopic)
	log := p.log.With(logger.ShopDomain(domain), logger.Event(topic))

	var payload Payload
	switch topic {
	case TopicSubscriptionUpdate:
		if payload, err = ParsePayload(body); err != nil {
			return "", err
		}
	case TopicAppUninstalled:
		payload = Payload{Status: "EXPIRED"}
	default:
		log.DebugContext(ctx, "webhook topic ignored")
		return OutcomeIgnored, nil
	}

	id := h.Get(shopify.HeaderWebhookID)
	marked := false
	if id != "" && p.ledger != nil {
		first, err := p.ledger.MarkDelivered(ctx, id)
		switch {
		case err != nil:
			log.WarnContext(ctx, "webhook dedupe unavailable", logger.Error(err))
		case !first:
			log.InfoContext(ctx, "duplicate webhook delivery", slog.String("webhook_id", id))
			return OutcomeDuplicate, nil
		default:
			marked = true
		}
	}

	if _, err := p.sync.SyncManagedSubscription(ctx, domain, payload); err != nil {
		log.ErrorContext(ctx, "webhook sync failed", logger.Error(err))
		if marked {
			// A redelivery must get another chance to apply.
			if err := p.ledger.Forget(context.WithoutCancel(ctx), id); err != nil {
				log.WarnContext(ctx, "webhook dedupe mark not cleared", slog.String("webhook_id", id), logger.Error(err))
			}
		}
		return OutcomeFailed, nil
	}
	return OutcomeApplied, nil
}
