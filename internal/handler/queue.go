package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/mw"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/service"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

// ListQueueHandler serves the production board, filterable by tailor and
// sub-status.
func ListQueueHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.QueueFilter{
			TailorID:        q.Get("tailor_id"),
			Status:          model.SubStatus(q.Get("status")),
			IncludeArchived: q.Get("include_archived") == "true",
		}

		items, err := queue.Items(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(items) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

type assignRequest struct {
	TailorID            string     `json:"tailor_id"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

func AssignTailorHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := queue.AssignTailor(r.Context(), chi.URLParam(r, "itemID"), req.TailorID, actor, req.EstimatedCompletion)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func ReassignTailorHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := queue.ReassignTailor(r.Context(), chi.URLParam(r, "itemID"), req.TailorID, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

type subStatusRequest struct {
	Status model.SubStatus `json:"status"`
	Note   string          `json:"note,omitempty"`
}

func UpdateSubStatusHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req subStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := queue.UpdateSubStatus(r.Context(), chi.URLParam(r, "itemID"), req.Status, actor, req.Note)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

type bulkSubStatusRequest struct {
	IDs    []string        `json:"ids"`
	Status model.SubStatus `json:"status"`
}

func BulkSubStatusHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req bulkSubStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(req.IDs) == 0 {
			http.Error(w, "ids required", http.StatusBadRequest)
			return
		}

		res, err := queue.BulkUpdateSubStatus(r.Context(), req.IDs, req.Status, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type noteBodyRequest struct {
	Kind model.NoteKind `json:"kind,omitempty"`
	Body string         `json:"body"`
}

func AddNoteHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req noteBodyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := queue.AddNote(r.Context(), chi.URLParam(r, "itemID"), actor, req.Kind, req.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func ListTailorsHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := queue.Tailors(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type registerTailorRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
	CapacityLimit int    `json:"capacity_limit"`
}

func RegisterTailorHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerTailorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		tl, err := queue.RegisterTailor(r.Context(), actor, req.Name, req.Phone, req.Specialty, req.CapacityLimit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tl)
	}
}

type noticeRequest struct {
	TailorIDs []string `json:"tailor_ids"`
	Message   string   `json:"message"`
}

// NotifyTailorsHandler stages a workshop notice for each named tailor.
func NotifyTailorsHandler(queue *service.QueueService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mw.ActorFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req noticeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(req.TailorIDs) == 0 {
			http.Error(w, "tailor_ids required", http.StatusBadRequest)
			return
		}

		res, err := queue.NotifyTailors(r.Context(), req.TailorIDs, req.Message, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
