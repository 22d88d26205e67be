package middleware

import (
	"errors"
	"net/http"

	"account_service/internal/apperror"
	"account_service/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Generic responses for errors without a client-facing shape
const (
	CodeServerError      = "SERVER_ERR"
	MsgServerError       = "Server Error"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	MsgResourceNotFound  = "Resource not found"
)

// ErrorHandler renders the last error pushed with c.Error as
// {"success": false, "error": ..., "code": ...}. Unknown errors become a
// 500 whose detail is only shown in development.
func ErrorHandler(log logrus.FieldLogger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := toAppError(err, development)

		entry := log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": appErr.Status,
			"code":   appErr.Code,
		})
		if appErr.Status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.Status, gin.H{
			"success": false,
			"error":   appErr.Body(),
			"code":    appErr.Code,
		})
	}
}

func toAppError(err error, development bool) *apperror.AppError {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	if errors.Is(err, model.ErrMalformedID) {
		return apperror.NewNotFound(CodeResourceNotFound, MsgResourceNotFound)
	}

	msg := MsgServerError
	if development {
		msg += ": " + err.Error()
	}
	return apperror.NewInternal(CodeServerError, msg, err)
}
