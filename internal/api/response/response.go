// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fractalizend/screener/internal/core"
)

// ErrorResponse is the error body. Cause is only exposed for client errors.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Cause   string `json:"cause,omitempty"`
	Current any    `json:"current,omitempty"`
}

var statusByCode = map[string]int{
	core.ErrMissingField.Code:     http.StatusBadRequest,
	core.ErrInvalidField.Code:     http.StatusBadRequest,
	core.ErrMethodNotAllowed.Code: http.StatusMethodNotAllowed,
	core.ErrUnauthorized.Code:     http.StatusUnauthorized,
	core.ErrNotFound.Code:         http.StatusNotFound,
	core.ErrTagExists.Code:        http.StatusConflict,
	core.ErrVersionConflict.Code:  http.StatusConflict,
	core.ErrUpstreamWrite.Code:    http.StatusInternalServerError,
	core.ErrUpstreamRead.Code:     http.StatusInternalServerError,
	core.ErrConfigMissing.Code:    http.StatusServiceUnavailable,
}

// Status maps an error to its HTTP status. Unknown errors are 500.
func Status(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// JSON writes data as the response body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	write(w, status, err, nil)
}

// Fail writes err with the status Status derives from it.
func Fail(w http.ResponseWriter, err error) {
	write(w, Status(err), err, nil)
}

// Conflict writes a 409 carrying the current server-side value.
func Conflict(w http.ResponseWriter, err error, current any) {
	write(w, http.StatusConflict, err, current)
}

func write(w http.ResponseWriter, status int, err error, current any) {
	resp := ErrorResponse{
		Message: "Internal server error",
		Code:    "INTERNAL_ERROR",
		Current: current,
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		resp.Code = coreErr.Code
		resp.Message = coreErr.Message
		if coreErr.Cause != nil && status < http.StatusInternalServerError {
			resp.Cause = coreErr.Cause.Error()
		}
	}

	JSON(w, status, resp)
}
