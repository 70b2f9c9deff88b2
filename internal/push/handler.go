package push

import (
	"encoding/json"
	"errors"
	"net/http"

	"octopus-backend/internal/shared/httpx"
)

type Handler struct{ svc Service }

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

type registerRequest struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type unregisterRequest struct {
	Token string `json:"token"`
}

type sendRequest struct {
	UserID       string  `json:"user_id"`
	Notification Payload `json:"notification"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if err := h.svc.Register(r.Context(), req.UserID, req.Token, req.Platform); err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"success": true}, http.StatusOK)
	return nil
}

func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) error {
	var req unregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if err := h.svc.Unregister(r.Context(), req.Token); err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"success": true}, http.StatusOK)
	return nil
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) error {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if req.UserID == "" || req.Notification.Title == "" {
		return httpx.BadRequest("user_id and notification required")
	}
	res, err := h.svc.Deliver(r.Context(), req.UserID, req.Notification)
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, res, http.StatusOK)
	return nil
}

// SendTest pushes a canned notification so a device registration can be
// verified end to end.
func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if req.UserID == "" {
		return httpx.BadRequest("user_id required")
	}
	res, err := h.svc.Deliver(r.Context(), req.UserID, Payload{
		Title: "Test Notification",
		Body:  "If you can read this, push delivery works.",
		Type:  "test",
		Badge: 1,
	})
	if err != nil {
		return mapErr(err)
	}
	httpx.WriteJSON(w, map[string]any{"success": true, "result": res}, http.StatusOK)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, ErrValidation) {
		return httpx.BadRequest(err.Error())
	}
	return err
}
