package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a single-row select matches no row.
var ErrNotFound = errors.New("identity: row not found")

// APIError is a non-2xx response from any of the identity service's endpoints.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity: %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorBody covers the auth, rest and storage error shapes.
type errorBody struct {
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	ErrorDescription string          `json:"error_description"`
	Error            string          `json:"error"`
	ErrorCode        string          `json:"error_code"`
	Code             json.RawMessage `json:"code"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Message = firstNonEmpty(eb.Message, eb.Msg, eb.ErrorDescription, eb.Error, http.StatusText(status))
	apiErr.Code = firstNonEmpty(eb.ErrorCode, rawCode(eb.Code))
	if apiErr.Code == "" && eb.Error != "" && eb.Error != apiErr.Message {
		apiErr.Code = eb.Error
	}
	return apiErr
}

// rawCode accepts "PGRST116" as well as 400.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
