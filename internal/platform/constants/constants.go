// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package constants provides centralized, immutable values for the entire portal.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Upstream: Timeouts and success sentinels for the talent backend API.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuer and portal token configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "castline-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Upstream Talent Backend

const (
	// UpstreamRequestTimeout bounds a single call to the talent backend.
	// Kept below GlobalRequestTimeout so a slow upstream still produces a
	// renderable failure envelope instead of a gateway timeout.
	UpstreamRequestTimeout = 20 * time.Second

	// UpstreamCodeOK is the success sentinel used by the agency-register
	// endpoint family (body `code: 200`).
	UpstreamCodeOK = 200

	// UpstreamCodeProfileOK is the success sentinel used by the
	// professionals-profile endpoint family (body `code: 1000`).
	//
	// The two sentinels are a documented inconsistency between upstream
	// backend modules. They are preserved per endpoint family and must not
	// be unified without backend confirmation.
	UpstreamCodeProfileOK = 1000

	// UpstreamErrorMaxLen is the truncation limit for upstream error
	// messages surfaced to the client.
	UpstreamErrorMaxLen = 250
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in portal JWTs.
	AuthIssuer = "castline.app"

	// PortalTokenCookieName carries the opaque portal session token.
	PortalTokenCookieName = "castline_session"

	// PortalTokenCookiePath restricts the session cookie to the API surface.
	PortalTokenCookiePath = "/api/v1"
)

// # OTP Verification

const (
	// OTPLength is the number of digits in a one-time verification code.
	OTPLength = 6

	// OTPResendCooldown is the client-facing countdown during which a
	// resend request is rejected without contacting the backend.
	OTPResendCooldown = 60 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaPortal = "portal"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixOTPCooldown = "otp:cooldown:"
	RedisPrefixSubmitted   = "portfolio:submitted:"
	RedisPrefixDraft       = "portfolio:draft:"
)
