package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const maxErrorBody = 1 << 20

// Fallback user-facing messages.
const (
	msgUnexpected   = "An unexpected error occurred"
	msgNetwork      = "Network error. Please check your connection."
	msgUnauthorized = "You are not authenticated. Please log in."
	msgForbidden    = "You do not have permission to perform this action."
	msgRateLimited  = "Too many requests. Please try again later."
	msgServer       = "Server error. Please try again later."
)

// Error is a non-2xx response with the backend's structured error body.
type Error struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code"`
	ErrorID    string          `json:"error_id,omitempty"`
	Path       string          `json:"path,omitempty"`
	Method     string          `json:"method,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	Code       string          `json:"code,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// ClientError reports whether the status is in the 4xx range.
func (e *Error) ClientError() bool { return e.StatusCode >= 400 && e.StatusCode < 500 }

// TransportError is a failure to obtain any HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type errorEnvelope struct {
	Error   *Error          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// parseError converts a non-2xx response into *Error. It understands the
// backend's {"error": {...}} envelope, FastAPI's {"detail": ...} and a bare
// {"message": ...}; anything else falls back to the status text.
func parseError(resp *http.Response) *Error {
	out := &Error{Message: msgUnexpected, StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		out.Message = statusText(resp)
		return out
	}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		out.Message = statusText(resp)
		return out
	}
	switch {
	case env.Error != nil:
		out = env.Error
		if out.StatusCode == 0 {
			out.StatusCode = resp.StatusCode
		}
		if out.Message == "" {
			out.Message = msgUnexpected
		}
	case len(env.Detail) > 0 && string(env.Detail) != "null":
		var s string
		if json.Unmarshal(env.Detail, &s) == nil {
			out.Message = s
		} else {
			out.Message = string(env.Detail)
		}
		out.Details = env.Detail
	case env.Message != "":
		out.Message = env.Message
	}
	return out
}

func statusText(resp *http.Response) string {
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return "Request failed"
}

// UserMessage maps any error returned by the client to the message shown to
// the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return messageForStatus(apiErr)
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return msgNetwork
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgUnexpected
}

func messageForStatus(e *Error) string {
	orDefault := func(def string) string {
		if e.Message != "" && e.Message != msgUnexpected {
			return e.Message
		}
		return def
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		return orDefault("Invalid request")
	case http.StatusUnauthorized:
		return msgUnauthorized
	case http.StatusForbidden:
		return msgForbidden
	case http.StatusNotFound:
		return orDefault("Resource not found")
	case http.StatusConflict:
		return orDefault("Resource already exists")
	case http.StatusUnprocessableEntity:
		if lines := ValidationDetails(e.Details); len(lines) > 0 {
			return "Validation failed:\n" + strings.Join(lines, "\n")
		}
		return orDefault("Validation failed")
	case http.StatusTooManyRequests:
		return msgRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return msgServer
	default:
		return orDefault(msgUnexpected)
	}
}

// ValidationDetails renders field-level validation details as sorted
// "field: msg, msg" lines. It accepts the backend's
// {"field": [{"message": ...}]} map, plain string or string-list values, and
// FastAPI's [{"loc": [...], "msg": ...}] list.
func ValidationDetails(details json.RawMessage) []string {
	if len(details) == 0 {
		return nil
	}
	fields := map[string][]string{}
	var asMap map[string]any
	var asList []map[string]any
	switch {
	case json.Unmarshal(details, &asMap) == nil:
		for field, v := range asMap {
			fields[field] = append(fields[field], flattenMessages(v)...)
		}
	case json.Unmarshal(details, &asList) == nil:
		for _, item := range asList {
			field := locField(item["loc"])
			if msg, ok := item["msg"].(string); ok {
				fields[field] = append(fields[field], msg)
			}
		}
	default:
		return nil
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, f := range names {
		lines = append(lines, f+": "+strings.Join(fields[f], ", "))
	}
	return lines
}

func flattenMessages(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, flattenMessages(item)...)
		}
		return out
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return []string{msg}
		}
		if msg, ok := t["msg"].(string); ok {
			return []string{msg}
		}
	}
	b, _ := json.Marshal(v)
	return []string{string(b)}
}

// locField drops the leading location segment ("body", "query") the way the
// backend's validation handler does.
func locField(loc any) string {
	parts, ok := loc.([]any)
	if !ok || len(parts) == 0 {
		return "request"
	}
	if len(parts) > 1 {
		parts = parts[1:]
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, fmt.Sprint(p))
	}
	return strings.Join(names, ".")
}
