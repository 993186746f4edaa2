package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-api/internal/domain"
	resp "estate-api/internal/transport/http/response"
)

// fail maps a service error onto the HTTP taxonomy once, for every handler.
// Anything unmatched is an internal failure: logged in full, returned as a
// generic 500.
func fail(c *gin.Context, l *zap.Logger, err error) {
	switch {
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrBadRole),
		errors.Is(err, domain.ErrSelfRole),
		errors.Is(err, domain.ErrSelfDelete):
		resp.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		resp.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		resp.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenConsumed):
		resp.Fail(c, http.StatusForbidden, "invalid refresh token")
	case errors.Is(err, domain.ErrForbidden):
		resp.Fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPropertyNotFound):
		resp.Fail(c, http.StatusNotFound, err.Error())
	default:
		l.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		resp.FailErr(c, http.StatusInternalServerError, "internal error", err)
	}
}
