package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/rostertag/internal/interfaces/http/middleware"
	"github.com/turtacn/rostertag/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeAppError maps err to its HTTP status.  Server-side failures are
// masked; the original error is attached to the context for the request log.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		abortJSON(c, http.StatusRequestEntityTooLarge, ErrorResponse{Code: string(errors.ErrCodeBadRequest), Message: "request body too large"})
		return
	case errors.Is(err, context.DeadlineExceeded):
		abortJSON(c, http.StatusGatewayTimeout, ErrorResponse{Code: string(errors.ErrCodeTimeout), Message: errors.DefaultMessageForCode(errors.ErrCodeTimeout)})
		return
	}

	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{Code: string(code)}
	if status >= http.StatusInternalServerError {
		if code == errors.CodeUnknown {
			resp.Code = string(errors.ErrCodeInternal)
		}
		resp.Message = errors.DefaultMessageForCode(errors.ErrorCode(resp.Code))
	} else {
		var ae *errors.AppError
		if errors.As(err, &ae) {
			resp.Message = ae.Message
		}
		resp.Detail = err.Error()
	}
	abortJSON(c, status, resp)
}

func writeBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	abortJSON(c, http.StatusBadRequest, ErrorResponse{
		Code:    string(errors.ErrCodeBadRequest),
		Message: "malformed request body",
		Detail:  err.Error(),
	})
}

func abortJSON(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
