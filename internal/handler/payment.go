package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/mw"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/service"
)

type paymentDecisionRequest struct {
	Decision service.Decision `json:"decision"`
	Note     string           `json:"note,omitempty"`
}

// DecidePaymentHandler records the staff verdict on a declared payment.
func DecidePaymentHandler(payments *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req paymentDecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		o, err := payments.Decide(r.Context(), chi.URLParam(r, "orderID"), req.Decision, actor, req.Note)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

// ResubmitPaymentHandler lets the customer declare a fresh payment after a
// rejection.
func ResubmitPaymentHandler(payments *service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var decl model.PaymentDeclaration
		if err := json.NewDecoder(r.Body).Decode(&decl); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		o, err := payments.Resubmit(r.Context(), chi.URLParam(r, "orderID"), decl, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}
