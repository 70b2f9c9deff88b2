package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Error carries the HTTP status a handler error should map to. Anything
// else surfaces as a 500 with no detail leaked to the caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) error { return &Error{Status: http.StatusBadRequest, Message: msg} }
func NotFound(msg string) error   { return &Error{Status: http.StatusNotFound, Message: msg} }

func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		var he *Error
		if errors.As(err, &he) {
			WriteJSON(w, map[string]any{"error": he.Message}, he.Status)
			return
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
		WriteJSON(w, map[string]any{"error": "internal error"}, http.StatusInternalServerError)
	})
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// CORS allows all origins, matching the public mobile-client surface.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
