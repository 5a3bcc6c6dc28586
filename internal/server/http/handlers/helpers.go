package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// CurrentPrincipal extracts authenticated principal from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	val, ok := c.Get(middleware.PrincipalContextKey)
	if !ok {
		return model.Principal{}
	}
	p, _ := val.(model.Principal)
	return p
}

// StatusOf maps a domain error to the HTTP status returned to the UI.
func StatusOf(err error) int {
	var (
		validation *domainErrors.ValidationError
		rejection  *domainErrors.BackendRejection
		transport  *domainErrors.TransportError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &rejection):
		switch {
		case rejection.Status == http.StatusNotFound:
			return http.StatusNotFound
		case rejection.Status == http.StatusConflict:
			return http.StatusConflict
		case rejection.Status >= http.StatusInternalServerError:
			return http.StatusBadGateway
		default:
			return http.StatusUnprocessableEntity
		}
	case errors.As(err, &transport):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, backend.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domainErrors.ErrSessionNotFound), errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrMutationInFlight),
		errors.Is(err, domainErrors.ErrTransitionInFlight),
		errors.Is(err, domainErrors.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the user-facing message of err.
func respondError(c *gin.Context, err error) {
	status := StatusOf(err)
	body := dto.ErrorResponse{Message: domainErrors.UserMessage(err)}
	var validation *domainErrors.ValidationError
	if errors.As(err, &validation) {
		body.Message = validation.Reason
		body.Fields = validation.Fields
	}
	if status == http.StatusInternalServerError {
		body.Message = "Something went wrong, please try again"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Message: msg})
}
