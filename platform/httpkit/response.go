// Package httpkit provides the gin plumbing shared by every module: the
// error envelope, tenant identity, auth and rate limiting.
package httpkit

import (
	"errors"
	"net/http"

	"leadflow_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// HandleError writes err as an ErrorResponse and aborts the chain. Typed
// errors keep their message and details; anything else becomes an opaque 500.
// Server-side failures are attached to the context so RequestLogger records
// the cause. Returns false when err is nil.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		domainErr = apperr.Wrap(apperr.KindInternal, msgInternal, err)
	}
	if apperr.IsServerSide(domainErr) {
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(domainErr.HTTPStatus(), ErrorResponse{
		Error:   domainErr.Message,
		Details: domainErr.Details,
	})
	return true
}
