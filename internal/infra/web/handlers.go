// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/model"
	"discord-membership-payments/internal/infra/metrics"
	"discord-membership-payments/internal/usecase"
)

// maxWebhookBody caps the raw envelope size before signature verification.
const maxWebhookBody = 1 << 20

// webhookHandler is the processor-facing receiver. The status code is the
// whole contract: 2xx stops redelivery, anything else schedules a retry. So
// the handler acknowledges everything it can never use (unknown types,
// malformed-but-authentic payloads) and errors only when a retry could
// actually succeed later.
func webhookHandler(parser SignalParser, reconciler usecase.ReconcileUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() { metrics.ObserveWebhookHandle(time.Since(start).Seconds()) }()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			metrics.IncWebhookEvent("oversized")
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}

		sig, err := parser.VerifyAndParse(body, r.Header.Get("Stripe-Signature"))
		if err != nil {
			if errors.Is(err, domain.ErrSignatureInvalid) {
				metrics.IncWebhookEvent("invalid_signature")
				log.Warn().Err(err).Msg("webhook signature verification failed")
				http.Error(w, "Invalid signature", http.StatusBadRequest)
				return
			}
			if errors.Is(err, domain.ErrMalformedPayload) {
				// Authentic but unusable. Redelivery would bring the same
				// bytes back, so acknowledge and log.
				metrics.IncWebhookEvent("malformed")
				log.Error().Err(err).Msg("webhook payload malformed")
				writeAck(w)
				return
			}
			metrics.IncWebhookEvent("error")
			http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
			return
		}
		if sig == nil {
			metrics.IncWebhookEvent("ignored")
			writeAck(w)
			return
		}

		if err := reconciler.Apply(r.Context(), sig); err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				// A competing delivery holds the correlation key; let the
				// processor retry this one after the holder commits.
				metrics.IncWebhookEvent("locked")
				http.Error(w, "Conflict", http.StatusConflict)
				return
			}
			metrics.IncWebhookEvent("error")
			log.Error().Err(err).Str("event_id", sig.EventID).Msg("signal apply failed")
			http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
			return
		}
		metrics.IncWebhookEvent("processed")
		writeAck(w)
	}
}

func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

type checkoutRequest struct {
	SubjectID      string `json:"user_id"`
	OrganizationID string `json:"guild_id"`
	Tier           string `json:"tier"`
	Mode           string `json:"mode"`
}

func checkoutHandler(checkoutUC usecase.CheckoutUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		url, err := checkoutUC.CreateSession(r.Context(), req.SubjectID, req.OrganizationID, req.Tier, model.PaymentMode(req.Mode))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrOrganizationNotOnboarded):
				http.Error(w, "Organization has not completed payment onboarding", http.StatusConflict)
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

type onboardRequest struct {
	OrganizationID string `json:"organization_id"`
}

func connectOnboardHandler(connectUC usecase.ConnectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req onboardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrganizationID == "" {
			http.Error(w, "organization_id is required", http.StatusBadRequest)
			return
		}
		url, err := connectUC.BeginOnboarding(r.Context(), req.OrganizationID)
		if err != nil {
			http.Error(w, "Failed to start onboarding", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

// connectRefreshHandler is the target of the processor's refresh_url: the
// onboarding link expired, so mint a fresh one and bounce the browser there.
func connectRefreshHandler(connectUC usecase.ConnectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := r.URL.Query().Get("org")
		if org == "" {
			http.Error(w, "org query parameter is required", http.StatusBadRequest)
			return
		}
		url, err := connectUC.RefreshOnboarding(r.Context(), org)
		if err != nil {
			if errors.Is(err, domain.ErrOrganizationNotOnboarded) {
				http.Error(w, "Organization has not started onboarding", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to refresh onboarding link", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, url, http.StatusSeeOther)
	}
}

func connectCompleteHandler(connectUC usecase.ConnectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := r.URL.Query().Get("org")
		if org == "" {
			http.Error(w, "org query parameter is required", http.StatusBadRequest)
			return
		}
		status, err := connectUC.CompleteOnboarding(r.Context(), org)
		if err != nil {
			if errors.Is(err, domain.ErrOrganizationNotOnboarded) {
				http.Error(w, "Organization has not started onboarding", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to complete onboarding", http.StatusInternalServerError)
			return
		}
		if status.ChargesEnabled {
			pageHandler(onboardDonePage)(w, r)
			return
		}
		pageHandler(onboardPendingPage)(w, r)
	}
}

func connectStatusHandler(connectUC usecase.ConnectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := chi.URLParam(r, "orgID")
		status, err := connectUC.Status(r.Context(), org)
		if err != nil {
			http.Error(w, "Failed to get onboarding status", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := statsUC.Collect(r.Context())
		if err != nil {
			http.Error(w, "Failed to collect stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
