package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/foomo/guestbook/responses"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// writeJSON writes data as a JSON response and returns the status code for
// instrumentation.
func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.l.Error("failed to encode response", zap.Error(err))
	}
	return status
}

// writeError writes the public error body. Internal causes are logged by the
// caller and never leave the server.
func (h *HTTP) writeError(w http.ResponseWriter, status int, message string) int {
	return h.writeJSON(w, status, responses.Error{Error: message})
}
