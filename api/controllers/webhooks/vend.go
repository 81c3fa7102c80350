package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pearcestephens/stocklink-backend/api/responses"
	"github.com/pearcestephens/stocklink-backend/internal/webhook"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

type WebhookProcessor interface {
	Process(ctx context.Context, payload webhook.Payload) webhook.Outcome
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type vendClient interface {
	SigningSecret() string
}

// VendWebhook receives push notifications from the point-of-sale API.
// Deliveries are at-least-once; the Redis guard and the queue idempotency key
// together make processing effectively once.
func VendWebhook(processor WebhookProcessor, client vendClient, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if processor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook processor unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "remote client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if secret := client.SigningSecret(); secret != "" {
			sigHeader := r.Header.Get("X-Signature")
			if sigHeader == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature missing"))
				return
			}
			if !validateSignature(body, secret, sigHeader) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
				return
			}
		}

		var payload webhook.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}

		eventID := strings.TrimSpace(payload.ID)
		if eventID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook id is required"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, webhook.Outcome{Success: true, Message: "already processed"})
			return
		}

		outcome := processor.Process(ctx, payload)
		if !outcome.Success {
			_ = guard.Delete(ctx, eventID)
			failure := outcome.Err
			if failure == nil {
				failure = pkgerrors.New(pkgerrors.CodeInternal, outcome.Error)
			}
			responses.WriteError(ctx, logg, w, failure)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("webhook %s processed", eventID))
		}
		responses.WriteSuccess(w, outcome)
	}
}

func validateSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
