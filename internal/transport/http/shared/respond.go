// Package shared holds the response helpers every handler uses so the JSON
// error envelope stays identical across the API surface.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "recproxy/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Errors
// without a code render as internal without leaking details.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) {
		resp.Message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
