package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/shopnotes/handler"
	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/svc/billing"
)

const maxWebhookBody = 1 << 20

// shopifyWebhook answers 200 to every verified delivery. Sync failures are
// recorded on the shop row, not surfaced to Shopify.
func (a *API) shopifyWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		handler.WriteError(a.log, w, r, errors.Join(handler.ErrBadRequest, err))
		return
	}

	outcome, err := a.webhooks.Process(r.Context(), r.Header, body)
	switch {
	case errors.Is(err, billing.ErrInvalidWebhook):
		handler.WriteError(a.log, w, r, errors.Join(handler.ErrUnauthorized, err))
		return
	case err != nil:
		a.log.WarnContext(r.Context(), "webhook payload rejected", logger.Error(err))
		outcome = billing.OutcomeIgnored
	}

	a.log.DebugContext(r.Context(), "webhook handled", slog.String("outcome", string(outcome)))
	_ = handler.JSON(map[string]billing.Outcome{"outcome": outcome}).Render(w, r)
}
