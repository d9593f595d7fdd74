package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	vineerrors "vinechain/core/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Code  string `json:"code"`
}

// statusFor maps a classified failure onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vineerrors.ErrAssetDoesNotExist),
		errors.Is(err, vineerrors.ErrContentDoesNotExist),
		errors.Is(err, vineerrors.ErrUnknownIdentity):
		return http.StatusNotFound
	}
	switch vineerrors.KindOf(err) {
	case vineerrors.KindValidation:
		return http.StatusBadRequest
	case vineerrors.KindInvariant:
		return http.StatusConflict
	case vineerrors.KindResource:
		return http.StatusPaymentRequired
	case vineerrors.KindArithmetic:
		return http.StatusUnprocessableEntity
	case vineerrors.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{
		Error: message,
		Kind:  vineerrors.KindOf(err).String(),
		Code:  vineerrors.CodeOf(err),
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Kind: vineerrors.KindValidation.String(), Code: "BAD_REQUEST"})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: message, Kind: vineerrors.KindValidation.String(), Code: "NOT_FOUND"})
}
