package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-monitor/internal/service"
)

// respondError maps service errors to status codes. Anything unrecognised is
// logged and reported as an opaque 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden, service.ErrInvalidToken.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "admin access required"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, service.ErrUserExists.Error()
	case errors.Is(err, service.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, service.ErrUnsupportedMediaType.Error()
	case errors.Is(err, service.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, service.ErrPayloadTooLarge.Error()
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidShiftRange),
		errors.Is(err, service.ErrUnknownUser):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
