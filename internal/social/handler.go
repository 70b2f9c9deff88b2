package social

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"octopus-backend/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

type createRequest struct {
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	Type        string `json:"type"`
	PostID      string `json:"post_id"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	n, err := h.svc.Create(r.Context(), req.RecipientID, req.ActorID, req.Type, req.PostID)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"notification": n}, http.StatusCreated)
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return httpx.BadRequest("user_id required")
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"notifications": items}, http.StatusOK)
	return nil
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if err := h.svc.MarkRead(r.Context(), id, userID); err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"success": true}, http.StatusOK)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, ErrValidation) {
		return httpx.BadRequest(err.Error())
	}
	return err
}
