package conversation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"octopus-backend/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	user1, user2 := q.Get("user1"), q.Get("user2")
	if user1 == "" || user2 == "" {
		return httpx.BadRequest("user1 and user2 required")
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	msgs, err := h.svc.ListMessages(r.Context(), user1, user2, limit, offset)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"messages": msgs}, http.StatusOK)
	return nil
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) error {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	msg, err := h.svc.AppendMessage(r.Context(), req.SenderID, req.ReceiverID, Body{
		Text:      req.Text,
		Photo:     req.Photo,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"message": msg}, http.StatusOK)
	return nil
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) error {
	var req markSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if req.MessageIDs == nil || req.UserID == "" {
		return httpx.BadRequest("message_ids array and user_id required")
	}
	if err := h.svc.MarkSeen(r.Context(), req.MessageIDs, req.UserID); err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"success": true}, http.StatusOK)
	return nil
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) error {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return httpx.BadRequest("user_id required")
	}
	sums, err := h.svc.ListConversations(r.Context(), userID)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"conversations": sums}, http.StatusOK)
	return nil
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) error {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return httpx.BadRequest("user_id required")
	}
	n, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"count": n}, http.StatusOK)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, ErrValidation) {
		return httpx.BadRequest(err.Error())
	}
	return err
}
