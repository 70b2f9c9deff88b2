package media

import (
	"encoding/json"
	"net/http"
	"time"

	"octopus-backend/internal/shared/httpx"
)

type Handler struct{ storage *Storage }

func NewHandler(storage *Storage) *Handler { return &Handler{storage: storage} }

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadURL hands out a presigned PUT for the upload plus a presigned GET
// the client can store as the photo reference. Both expire in an hour.
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) error {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpx.BadRequest("invalid json")
	}
	if req.Filename == "" || req.ContentType == "" {
		return httpx.BadRequest("filename and content_type required")
	}

	key := ObjectKey(req.Filename)
	putURL, err := h.storage.PresignPut(r.Context(), key, time.Hour)
	if err != nil {
		return err
	}
	getURL, err := h.storage.PresignGet(r.Context(), key, time.Hour)
	if err != nil {
		return err
	}

	httpx.WriteJSON(w, map[string]any{
		"url":        putURL.String(),
		"key":        key,
		"public_url": getURL.String(),
	}, http.StatusOK)
	return nil
}
