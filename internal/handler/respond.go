package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/pricing"
)

type errorResponse struct {
	Error   string         `json:"error"`
	From    model.Status   `json:"from,omitempty"`
	To      model.Status   `json:"to,omitempty"`
	Allowed []model.Status `json:"allowed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError translates service errors into status codes. Rejected
// transitions answer with the legal successor states so clients can offer a
// corrected action.
func writeError(w http.ResponseWriter, err error) {
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		status := statusFor(te.Err)
		if status == http.StatusInternalServerError {
			status = http.StatusConflict
		}
		// An illegal edge on a loaded order is a state conflict, not bad input.
		if te.From != "" && errors.Is(te.Err, model.ErrInvalidStatus) {
			status = http.StatusConflict
		}
		writeJSON(w, status, errorResponse{Error: te.Error(), From: te.From, To: te.To, Allowed: te.Allowed})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrUnauthorizedTransition):
		return http.StatusForbidden
	case errors.Is(err, model.ErrOrderNotFound),
		errors.Is(err, model.ErrQueueItemNotFound),
		errors.Is(err, model.ErrTailorNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLoginTaken),
		errors.Is(err, model.ErrAlreadyVerified),
		errors.Is(err, model.ErrAlreadyAssigned),
		errors.Is(err, model.ErrNotAssigned),
		errors.Is(err, model.ErrQueueItemArchived),
		errors.Is(err, model.ErrCapacityExceeded),
		errors.Is(err, model.ErrPaymentNotVerified),
		errors.Is(err, model.ErrProductionLocked),
		errors.Is(err, model.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidItem),
		errors.Is(err, model.ErrInvalidPayment),
		errors.Is(err, model.ErrInsufficientAdvance),
		errors.Is(err, model.ErrMissingReason),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrInvalidSubStatus),
		errors.Is(err, model.ErrInvalidNote),
		errors.Is(err, model.ErrInvalidTailor),
		errors.Is(err, pricing.ErrUnknownRegion),
		errors.Is(err, pricing.ErrInvalidDiscount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
