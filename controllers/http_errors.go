package controllers

import (
	"errors"
	"net/http"

	"nutriplan-backend/services"
)

// statusFor maps service errors to HTTP codes. Authorization failures stay
// generic so callers cannot probe which records exist.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateWeek):
		return http.StatusConflict
	case errors.Is(err, services.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrPlanNotPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
