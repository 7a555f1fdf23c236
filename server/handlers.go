package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/reconcile"
	"github.com/shoplane/storefront-core/session"
)

const contentTypeJSON = "application/json"

// handleReturn is the gateway-B return URL. The full request URL (query
// included) is handed to the reconciler; the response is the receipt the
// confirmation view renders from.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	if readiness := s.guard.AwaitReady(r.Context(), 2*time.Second); readiness == session.Unauthenticated {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	rec, err := s.reconcilerFor(r.URL.Query().Get("order_id"))
	if err != nil {
		s.logError(r, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outcome, err := rec.HandleReturn(r.Context(), r.URL.String())
	if err != nil {
		s.logError(r, err)
		if errors.Is(err, reconcile.OrderDataMissingErr) {
			http.Error(w, "checkout data missing, please restart checkout", http.StatusGone)
			return
		}
		http.Error(w, "order creation failed, please restart checkout", http.StatusBadGateway)
		return
	}

	switch {
	case outcome.NotGatewayB:
		http.Error(w, "not a gateway B return", http.StatusBadRequest)
	case outcome.Duplicate:
		// Already handled; send the caller to the receipt.
		http.Redirect(w, r, "/checkout/receipt", http.StatusSeeOther)
	default:
		s.writeJSON(w, http.StatusOK, outcome.Receipt)
	}
}

// handleReceipt serves the short-lived completed-order snapshot so a forced
// reload of the confirmation view still renders.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := checkout.LoadReceipt(r.Context(), s.deps.Durable, time.Now())
	if err != nil {
		if errors.Is(err, checkout.ReceiptExpiredErr) {
			http.Error(w, "no recent order", http.StatusNotFound)
			return
		}
		s.logError(r, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("response encode failed")
	}
}
