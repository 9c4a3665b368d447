package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of every response that carries no document.
type MessageResponse struct {
	Message string `json:"message"`
	Deleted *int64 `json:"deleted,omitempty"`
}

// RespondJSON writes a document (or a list of them) as the response body.
func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func RespondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, MessageResponse{Message: message})
}

// RespondDeleted reports the outcome of a bulk delete.
func RespondDeleted(c *gin.Context, message string, deleted int64) {
	c.JSON(http.StatusOK, MessageResponse{Message: message, Deleted: &deleted})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, MessageResponse{Message: err.Error()})
}

// RespondFailure renders err with the status it carries. Anything that is
// not an *HTTPError is an internal error and its text is passed through.
func RespondFailure(c *gin.Context, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		RespondError(c, httpErr.Status, httpErr)
		return
	}
	ErrorLogger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	RespondMessage(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
}
