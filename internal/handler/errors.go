package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

type errorBody struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// kindStatus maps the domain error taxonomy onto HTTP status codes. The kind
// itself travels in the body so callers never have to infer it from the
// status; the message is kept as-is for client-caused kinds while fatal kinds
// get a generic body and a log entry.
var kindStatus = map[fault.Kind]int{
	fault.KindInvalidInput:      http.StatusBadRequest,
	fault.KindNotFound:          http.StatusNotFound,
	fault.KindForbidden:         http.StatusForbidden,
	fault.KindInsufficientStock: http.StatusBadRequest,
	fault.KindInvalidTransition: http.StatusConflict,
	fault.KindConflict:          http.StatusConflict,
	fault.KindConfiguration:     http.StatusInternalServerError,
	fault.KindDataIntegrity:     http.StatusInternalServerError,
	fault.KindInternal:          http.StatusInternalServerError,
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := fault.MessageOf(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		// The kind stays truthful; only the message is genericized so
		// internals never leak to callers.
		message = "internal error"
	}

	writeJSON(w, status, errorBody{Code: status, Kind: string(kind), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fault.Invalid("malformed request body")
	}
	return nil
}
