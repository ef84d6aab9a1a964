package server

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error codes carried in the "code" member of an error body.
const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"
)

type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	ErrorID    string `json:"error_id"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Timestamp  string `json:"timestamp"`
	Details    any    `json:"details,omitempty"`
	Code       string `json:"code,omitempty"`
}

// FieldIssue is one failed check on a request field.
type FieldIssue struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// FieldIssues maps request fields to their failed checks. It is returned as
// the details of a 422 response.
type FieldIssues map[string][]FieldIssue

func (f FieldIssues) add(field, typ, message string) {
	f[field] = append(f[field], FieldIssue{Message: message, Type: typ})
}

func (f FieldIssues) Error() string {
	fields := make([]string, 0, len(f))
	for name := range f {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

func (f FieldIssues) orNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// abort writes the error envelope and stops the handler chain.
func (s *Server) abort(c *gin.Context, status int, message string, details any, code string) {
	body := errorBody{
		Message:    message,
		StatusCode: status,
		ErrorID:    uuid.NewString(),
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		Timestamp:  s.now().UTC().Format("2006-01-02T15:04:05.000000"),
		Details:    details,
		Code:       code,
	}
	level := s.log.Warn
	if status >= http.StatusInternalServerError {
		level = s.log.Error
	}
	level("request failed",
		"error_id", body.ErrorID,
		"status", status,
		"method", body.Method,
		"path", body.Path,
		"message", message,
	)
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// fail maps a store or validation error onto its HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	var nf *NotFoundError
	var issues FieldIssues
	switch {
	case errors.As(err, &nf):
		s.abort(c, http.StatusNotFound, nf.Error(), nil, codeNotFound)
	case errors.As(err, &issues):
		s.abort(c, http.StatusUnprocessableEntity, "Validation failed", issues, codeValidation)
	default:
		s.abort(c, http.StatusInternalServerError, "An unexpected error occurred", nil, codeInternal)
	}
}
