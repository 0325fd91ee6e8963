// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/castlinehq/castline-api/internal/platform/constants"
)

// # Client Definition

// Client talks to the external talent backend.
//
// Every endpoint follows the shape `METHOD {base}/{resource}/v1/{action}[/{id}]`
// with JSON bodies and a bearer Authorization header on authenticated
// resources. All methods return a normalized [Result]; none return transport
// errors directly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a talent backend client.
//
// # Parameters
//   - baseURL: Root of the backend API, without a trailing slash.
//   - logger: Structured logger for request diagnostics.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.UpstreamRequestTimeout,
		},
		logger: logger,
	}
}

// # Request Execution

// call performs a single upstream request and normalizes the outcome.
//
// # Parameters
//   - ctx: Request-scoped context (cancellation, deadline).
//   - method: HTTP method.
//   - path: Path below the base URL, starting with '/'.
//   - token: Bearer token, or "" for public endpoints. The token is supplied
//     per call — never cached at client construction — so a logout/login
//     cycle is observed by every request built afterwards.
//   - query: Optional query parameters.
//   - payload: Optional JSON body.
func (client *Client) call(ctx context.Context, method, path, token string, query url.Values, payload any) Result {

	fullURL := client.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	// Encode the JSON body if one was supplied
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			// A non-serializable payload is a programming error, but it is
			// still converted into the uniform failure envelope.
			return normalizeTransportFailure(err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return normalizeTransportFailure(err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	result := Normalize(response, err)

	if !result.Success {
		client.logger.WarnContext(ctx, "upstream_call_failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", result.Status),
			slog.Bool("connection_refused", result.ConnectionRefused()),
		)
	}

	return result
}

// get is shorthand for an authenticated GET call.
func (client *Client) get(ctx context.Context, path, token string, query url.Values) Result {
	return client.call(ctx, http.MethodGet, path, token, query, nil)
}

// post is shorthand for an authenticated POST call with a JSON body.
func (client *Client) post(ctx context.Context, path, token string, payload any) Result {
	return client.call(ctx, http.MethodPost, path, token, nil, payload)
}

// put is shorthand for an authenticated PUT call with a JSON body.
func (client *Client) put(ctx context.Context, path, token string, payload any) Result {
	return client.call(ctx, http.MethodPut, path, token, nil, payload)
}

// del is shorthand for an authenticated DELETE call.
func (client *Client) del(ctx context.Context, path, token string) Result {
	return client.call(ctx, http.MethodDelete, path, token, nil, nil)
}

// Ping probes the backend for the readiness endpoint. Any response at all
// (even a 404) proves the host is reachable; only transport failures count
// as unhealthy.
func (client *Client) Ping(ctx context.Context) error {
	result := client.get(ctx, "/actuator/health", "", nil)
	if result.Status == 0 {
		return &UnreachableError{Details: result.StringField("details")}
	}
	return nil
}

// UnreachableError reports a failed backend reachability probe.
type UnreachableError struct {
	Details string
}

func (e *UnreachableError) Error() string {
	return "upstream: backend unreachable: " + e.Details
}
