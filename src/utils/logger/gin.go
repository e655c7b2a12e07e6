package logger

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var ginLogger = NewSublogger("http")

// Error body returned by the REST API
type ErrorResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// Error carrying a list of offending fields
type fieldsError interface {
	MissingFields() []string
}

// Logger with the request's details
func LOG(c *gin.Context) *logrus.Entry {
	return ginLogger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
}

// Aborts the request with the given status and returns logger with the request's details and the error
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	body := ErrorResponse{Message: "Request failed"}
	if err != nil {
		body.Message = err.Error()

		var fe fieldsError
		if errors.As(err, &fe) {
			body.Fields = fe.MissingFields()
		}
	}
	c.AbortWithStatusJSON(status, body)

	return LOG(c).WithError(err).WithField("status", status)
}
