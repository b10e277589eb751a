package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: apperr.CodeOK, Message: apperr.Msg(apperr.CodeOK), Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: apperr.CodeOK, Message: apperr.Msg(apperr.CodeOK), Data: data})
}

func invalidParams(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Code:    apperr.CodeInvalidParams,
		Message: apperr.Msg(apperr.CodeInvalidParams) + ": " + err.Error(),
	})
}

// fail renders err with the status of its kind. Persistence failures are
// logged and reported without detail.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	code := apperr.CodeOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		loggerOf(c).ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(), "error", err)
		msg = apperr.Msg(apperr.CodeError)
	}
	c.AbortWithStatusJSON(status, Response{Code: code, Message: msg})
}

func statusOf(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeAuth, apperr.CodeAuthTokenInvalid, apperr.CodeAuthTokenExpired, apperr.CodeInvalidCredential:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	}
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadID = errors.New("id must be a positive integer")

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		invalidParams(c, errBadID)
		return 0, false
	}
	return id, true
}

func indexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		invalidParams(c, errors.New("index must be an integer"))
		return 0, false
	}
	return idx, true
}
