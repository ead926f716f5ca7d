package httpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

// maxErrorBody limits how much of an error body is kept.
const maxErrorBody = 1 << 20

// errorBody covers the shapes the backend uses for failures:
//
//	{"code": "payment_required", "detail": "..."}
//	{"error": {"code": "...", "message": "..."}}
//	{"detail": "Authentication credentials were not provided."}
type errorBody struct {
	Code    string          `json:"code"`
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type nestedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and builds the
// structured error carrying status, code, parsed body and the request line.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, method, path string) *apperrors.APIError {
	defer func() { _ = resp.Body.Close() }()

	apiErr := &apperrors.APIError{
		Status:     resp.StatusCode,
		Method:     method,
		Path:       path,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Detail = "failed to read error body: " + err.Error()
		return apiErr
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		apiErr.Detail = http.StatusText(resp.StatusCode)
		return apiErr
	}

	if !json.Valid(raw) {
		apiErr.Detail = truncate(string(raw), 512)
		return apiErr
	}
	apiErr.Body = json.RawMessage(raw)
	apiErr.Code, apiErr.Detail = parseErrorBody(raw)
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// parseErrorBody extracts the code and a human readable detail. Unknown
// shapes yield empty strings; the raw body is still kept on the error.
func parseErrorBody(raw []byte) (code, detail string) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", ""
	}

	code = body.Code
	detail = body.Message

	if len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			detail = s
		} else {
			var nested nestedError
			if json.Unmarshal(body.Detail, &nested) == nil {
				if code == "" {
					code = nested.Code
				}
				if nested.Message != "" {
					detail = nested.Message
				}
			}
		}
	}

	if len(body.Error) > 0 {
		var nested nestedError
		if json.Unmarshal(body.Error, &nested) == nil {
			if code == "" {
				code = nested.Code
			}
			if detail == "" {
				detail = nested.Message
			}
		} else {
			var s string
			if json.Unmarshal(body.Error, &s) == nil && detail == "" {
				detail = s
			}
		}
	}

	return code, detail
}

// parseRetryAfter understands both delta-seconds and HTTP-date values.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
