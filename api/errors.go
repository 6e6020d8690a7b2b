package api

import (
	"errors"
	"net/http"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps the error taxonomy onto HTTP. Anything unknown is a 500
// with a generic message.
func writeError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		infra      *domain.InfrastructureError
	)
	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		abortWith(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrBookingNotPending):
		abortWith(c, http.StatusConflict, "not_pending", err.Error())
	case errors.Is(err, domain.ErrUnauthorizedApprover):
		abortWith(c, http.StatusForbidden, "unauthorized_approver", err.Error())
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{
			Code: "validation_failed", Message: validation.Message, Field: validation.Field,
		}})
	case errors.Is(err, domain.ErrInvalidReference):
		abortWith(c, http.StatusUnprocessableEntity, "invalid_reference", domain.ErrInvalidReference.Error())
	case errors.Is(err, domain.ErrRejectionNotesRequired):
		abortWith(c, http.StatusUnprocessableEntity, "notes_required", err.Error())
	case errors.Is(err, availability.ErrInvalidWindow):
		abortWith(c, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.As(err, &infra):
		abortWith(c, http.StatusInternalServerError, "internal", infra.Error())
	default:
		abortWith(c, http.StatusInternalServerError, "internal", domain.ErrInfrastructure.Error())
	}
}
