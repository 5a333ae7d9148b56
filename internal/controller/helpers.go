package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	domainErrors "github.com/cassiomorais/qrpay/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{domainErrors.ErrInvalidQRFormat, http.StatusBadRequest, "invalid_qr_format"},
	{domainErrors.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{domainErrors.ErrPollInProgress, http.StatusConflict, "poll_in_progress"},
	{domainErrors.ErrCheckoutInFlight, http.StatusConflict, "checkout_in_flight"},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domainErrors.ErrNoActiveIntent, http.StatusConflict, "no_active_intent"},
	{domainErrors.ErrConfirmPending, http.StatusBadGateway, "confirm_pending"},
	{domainErrors.ErrOrderNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrProductNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated"},
	{domainErrors.ErrCoordinatorClosed, http.StatusServiceUnavailable, "shutting_down"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	// Backend errors pass their message through verbatim.
	var remoteErr *apiclient.RemoteError
	if errors.As(err, &remoteErr) {
		resp.Code = "upstream_error"
		if remoteErr.Code != "" {
			resp.Code = remoteErr.Code
		}
		resp.Error = remoteErr.Message
		status := remoteErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, resp)
		return
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
