// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package upstream implements the HTTP client for the external talent backend.

The backend is a multi-module Spring API whose responses are anything but
uniform: some endpoints wrap payloads in a {code, status, data, message, error}
envelope, some return raw arrays, some return paginated {content, totalPages}
pages, and the success sentinel in the body differs between endpoint families
(code 200 vs code 1000). This package normalizes every response — including
transport failures where no response arrived at all — into a single [Result]
shape so callers can branch uniformly.

Architecture:

  - Envelope: One normalization path for every call; nothing in this layer
    ever panics or returns a transport error to the caller.
  - Families: One file per upstream endpoint family (register, profile,
    portfolio, media), each documenting its own success sentinel.
  - Tokens: Bearer tokens are supplied per call, never cached at client
    construction, so a logout/login cycle is observed immediately.
*/
package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/castlinehq/castline-api/internal/platform/constants"
)

// # Normalized Result

// Result is the uniform envelope every upstream call is normalized into.
//
// # Invariant
//
// A Result is ALWAYS produced — transport failures, malformed bodies, and
// application-level errors all land here as Success == false. Callers never
// see a raw Go error from the normalization layer.
type Result struct {
	// Success is true iff an HTTP response arrived with a 2xx status.
	// Body-level sentinels (code 200 / code 1000) are checked by the
	// endpoint family on top of this.
	Success bool

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Data is the decoded body: a JSON object/array for JSON responses, or
	// a synthesized object for text, empty, and failed-transport responses.
	Data any
}

// Sentinel messages synthesized by the normalizer.
const (
	msgInvalidJSON = "Invalid JSON response from server"
	msgEmptyBody   = "Empty response from server"
)

// Normalize converts a raw (response, transport error) pair into a [Result].
//
// # Flow
//  1. Transport failure (response never arrived) → Status 0 and a
//     connectionRefused classification.
//  2. JSON content type → parse; unparseable JSON is converted to a
//     synthesized error object, never an exception.
//  3. Anything else → read as text; empty bodies get their own marker.
func Normalize(response *http.Response, err error) Result {
	if err != nil {
		return normalizeTransportFailure(err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return normalizeTransportFailure(readErr)
	}

	result := Result{
		Success: response.StatusCode >= 200 && response.StatusCode <= 299,
		Status:  response.StatusCode,
	}

	contentType := response.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var decoded any
		if jsonErr := json.Unmarshal(body, &decoded); jsonErr != nil {
			result.Data = map[string]any{"error": msgInvalidJSON}
			return result
		}
		result.Data = decoded
		return result
	}

	// Non-JSON bodies are preserved as text so the error-extraction
	// priority chain can still surface them.
	text := strings.TrimSpace(string(body))
	if text == "" {
		result.Data = map[string]any{"error": msgEmptyBody}
		return result
	}
	result.Data = map[string]any{"message": text}
	return result
}

// normalizeTransportFailure builds the Status == 0 envelope for errors where
// no usable response reached the gateway.
func normalizeTransportFailure(err error) Result {
	refused := isConnectionRefused(err)

	message := "Request to backend failed"
	if refused {
		message = "Cannot connect to backend: connection refused or server unreachable"
	}

	return Result{
		Success: false,
		Status:  0,
		Data: map[string]any{
			"error":             message,
			"details":           err.Error(),
			"connectionRefused": refused,
		},
	}
}

// isConnectionRefused classifies "server unreachable" failures apart from
// other transport errors (timeouts, TLS, DNS).
func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	// Wrapped url.Error values sometimes only carry the text.
	text := err.Error()
	return strings.Contains(text, "connection refused") ||
		strings.Contains(text, "no such host")
}

// # Envelope Accessors

// Object returns Data as a JSON object, or nil when the body was not one.
func (r Result) Object() map[string]any {
	obj, _ := r.Data.(map[string]any)
	return obj
}

// Field returns a top-level field of the data object.
func (r Result) Field(key string) any {
	obj := r.Object()
	if obj == nil {
		return nil
	}
	return obj[key]
}

// StringField returns a top-level string field of the data object, or "".
func (r Result) StringField(key string) string {
	s, _ := r.Field(key).(string)
	return s
}

// BodyCode extracts the numeric `code` sentinel from the response body.
// Returns -1 when the body carries no numeric code.
func (r Result) BodyCode() int {
	switch v := r.Field("code").(type) {
	case float64:
		return int(v)
	case string:
		// Some upstream modules serialize the code as a string.
		var code int
		if _, err := fmt.Sscanf(v, "%d", &code); err == nil {
			return code
		}
	}
	return -1
}

// CodeIs reports whether the body-level success sentinel matches the family's
// expected value. Family methods document which sentinel they require.
func (r Result) CodeIs(want int) bool {
	return r.BodyCode() == want
}

// Payload returns the nested `data` field when the body uses the
// {code, status, data, ...} envelope, falling back to the whole body for
// endpoints that return the payload bare.
func (r Result) Payload() any {
	if obj := r.Object(); obj != nil {
		if inner, ok := obj["data"]; ok && inner != nil {
			return inner
		}
	}
	return r.Data
}

// ConnectionRefused reports whether the failure was classified as
// "server unreachable" rather than an ordinary error response.
func (r Result) ConnectionRefused() bool {
	refused, _ := r.Field("connectionRefused").(bool)
	return refused
}

// ErrorMessage extracts a human-readable failure description from the body.
//
// # Priority
//
// explicit `error` field > `exception` field > `message` field > generic
// fallback. Long messages are truncated at the configured limit with an
// ellipsis so a stack trace from the backend never floods the UI.
func (r Result) ErrorMessage() string {
	message := ""
	if obj := r.Object(); obj != nil {
		for _, key := range []string{"error", "exception", "message"} {
			if s, ok := obj[key].(string); ok && s != "" {
				message = s
				break
			}
		}
	}

	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", r.Status)
	}

	return truncate(message, constants.UpstreamErrorMaxLen)
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
