package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackgods/sus-scheduling/internal/apperr"
	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/identity"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// specificErrors are checked in order before the category fallback.
var specificErrors = []errorMapping{
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{identity.ErrNoSession, http.StatusUnauthorized, "no_session"},
	{identity.ErrPatientExists, http.StatusConflict, "patient_exists"},
	{identity.ErrDoctorExists, http.StatusConflict, "doctor_exists"},
	{booking.ErrSlotConflict, http.StatusConflict, "slot_conflict"},
	{booking.ErrAlreadyBooked, http.StatusConflict, "already_booked"},
	{booking.ErrSlotNotOpen, http.StatusConflict, "slot_not_open"},
	{booking.ErrSlotNotClaimed, http.StatusConflict, "slot_not_claimed"},
	{booking.ErrSlotNotOwned, http.StatusConflict, "slot_not_owned"},
	{booking.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{booking.ErrSlotInPast, http.StatusBadRequest, "slot_in_past"},
	{booking.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
	{booking.ErrNotInCatalog, http.StatusNotFound, "not_in_catalog"},
}

var categoryErrors = []errorMapping{
	{apperr.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrConflict, http.StatusConflict, "conflict"},
	{apperr.ErrState, http.StatusConflict, "invalid_state"},
}

// handleError maps a core error to its HTTP status. Infrastructure failures
// become a retryable 503 without exposing the cause.
func handleError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrInfrastructure) {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", apperr.ErrInfrastructure.Error())
		return
	}
	for _, m := range specificErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	for _, m := range categoryErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
