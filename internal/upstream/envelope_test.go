// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/upstream"
)

// doGet issues a plain GET against a test server and normalizes the outcome.
func doGet(t *testing.T, url string) upstream.Result {
	t.Helper()
	response, err := http.Get(url)
	return upstream.Normalize(response, err)
}

/*
TestNormalize_ValidJSON verifies that JSON bodies are decoded and success
mirrors the HTTP status class.
*/
func TestNormalize_ValidJSON(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
	}{
		{"ok_200", http.StatusOK, `{"code": 200, "data": {"id": "a1"}}`, true},
		{"created_201", http.StatusCreated, `{"code": 200}`, true},
		{"bad_request_400", http.StatusBadRequest, `{"error": "bad input"}`, false},
		{"server_error_500", http.StatusInternalServerError, `{"exception": "boom"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result := doGet(t, server.URL)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.status, result.Status)
			require.NotNil(t, result.Object())
		})
	}
}

/*
TestNormalize_InvalidJSON verifies that an unparseable body with a JSON
content type becomes a synthesized error object and never an exception.
*/
func TestNormalize_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"broken": `))
	}))
	defer server.Close()

	result := doGet(t, server.URL)

	assert.True(t, result.Success) // HTTP 200 — body is garbage, status is not
	assert.Equal(t, "Invalid JSON response from server", result.StringField("error"))
}

/*
TestNormalize_TextAndEmptyBodies verifies the non-JSON branches.
*/
func TestNormalize_TextAndEmptyBodies(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
		wantValue string
	}{
		{"plain_text", "maintenance in progress", "message", "maintenance in progress"},
		{"empty_body", "", "error", "Empty response from server"},
		{"whitespace_only", "   \n", "error", "Empty response from server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result := doGet(t, server.URL)
			assert.Equal(t, tt.wantValue, result.StringField(tt.wantField))
		})
	}
}

/*
TestNormalize_ConnectionRefused verifies the transport-failure envelope:
Status 0, connectionRefused true, no panic, no raw error.
*/
func TestNormalize_ConnectionRefused(t *testing.T) {
	// Start a server and shut it down immediately so its port refuses.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	result := doGet(t, deadURL)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Status)
	assert.True(t, result.ConnectionRefused())
	assert.NotEmpty(t, result.StringField("details"))
}

/*
TestResult_ErrorMessage exercises the extraction priority:
error > exception > message > generic fallback.
*/
func TestResult_ErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error_wins", `{"error": "E", "exception": "X", "message": "M"}`, "E"},
		{"exception_second", `{"exception": "X", "message": "M"}`, "X"},
		{"message_third", `{"message": "M"}`, "M"},
		{"fallback_last", `{"code": 500}`, "Request failed with status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result := doGet(t, server.URL)
			assert.Equal(t, tt.want, result.ErrorMessage())
		})
	}
}

/*
TestResult_ErrorMessage_Truncation verifies that oversized upstream messages
are cut at 250 characters with an ellipsis.
*/
func TestResult_ErrorMessage_Truncation(t *testing.T) {
	long := strings.Repeat("x", 400)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "` + long + `"}`))
	}))
	defer server.Close()

	result := doGet(t, server.URL)
	message := result.ErrorMessage()

	assert.Len(t, message, 253) // 250 + "..."
	assert.True(t, strings.HasSuffix(message, "..."))
}

/*
TestResult_BodyCode verifies sentinel extraction for both upstream families,
including the string-encoded variant some backend modules emit.
*/
func TestResult_BodyCode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"numeric_200", `{"code": 200}`, 200},
		{"numeric_1000", `{"code": 1000}`, 1000},
		{"string_code", `{"code": "1000"}`, 1000},
		{"missing_code", `{"data": {}}`, -1},
		{"raw_array", `[1, 2, 3]`, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result := doGet(t, server.URL)
			assert.Equal(t, tt.want, result.BodyCode())
			assert.Equal(t, tt.want == 1000, result.CodeIs(1000))
		})
	}
}
