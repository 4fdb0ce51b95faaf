package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/account"
	"github.com/navid-fn/coinview/internal/avatar"
	"github.com/navid-fn/coinview/internal/identity"
	"github.com/navid-fn/coinview/internal/marketdata"
	"github.com/navid-fn/coinview/internal/resilience"
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var apiErr *identity.APIError
	var statusErr *marketdata.StatusError

	switch {
	case errors.Is(err, account.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, avatar.ErrPickCanceled), errors.Is(err, marketdata.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrCircuitBreakerOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

var errBadRequest = errors.New("bad request")

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
