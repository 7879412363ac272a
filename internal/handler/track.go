package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/service"
)

// TrackOrderHandler is the public order-number lookup. No authentication, no
// internal ids, no actor names.
func TrackOrderHandler(tracking *service.TrackingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proj, err := tracking.Track(r.Context(), chi.URLParam(r, "orderNumber"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proj)
	}
}
