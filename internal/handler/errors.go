package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
)

// errorResponse is the JSON error envelope for all non-2xx responses.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps an error to a status code and writes the JSON envelope.
// The underlying cause is never leaked to the caller beyond its category;
// details go to the log and metrics only.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusUnprocessableEntity, "validation_error"
		message = err.Error()
	case errors.Is(err, domain.ErrCompile):
		status, code = http.StatusBadRequest, "bad_request"
		message = err.Error()
	default:
		status, code = http.StatusInternalServerError, "internal_error"
		message = "export failed"
	}

	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// requestError writes a 400 for requests rejected before reaching the
// service layer (e.g. a malformed JSON body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorDetail{Code: "bad_request", Message: message}})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck — nothing useful to do with a failed error write.
	json.NewEncoder(w).Encode(body)
}
