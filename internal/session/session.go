// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package session implements the portal session store.

A session binds the browser's opaque portal token to the upstream bearer
token and the minimal user identity needed by every authenticated flow
(professionals/agency id, username, email, name, mobile number, and — once
lazily created — the professionals profile id).

Architecture:

  - Injected, never ambient: the store is passed to services through
    constructors. There is no process-wide session singleton; every read goes
    through the [Store] interface, which makes the session lifecycle testable
    in isolation.
  - Persisted server-side in PostgreSQL so a session survives page reloads
    and gateway restarts within its TTL.
  - The portal token is stored as a SHA-256 hash; the upstream bearer token
    is stored verbatim because the gateway must replay it on every backend
    call.

No upstream-token refresh exists: when the backend answers 401 the failure
envelope is surfaced to the caller like any other failed response.
*/
package session

import "time"

// # Lifetime

const (
	// TTL is how long a portal session stays valid. Mirrors the upstream
	// token lifetime so the two expire together in practice.
	TTL = 24 * time.Hour

	// TokenLength is the byte length of the random portal session token.
	TokenLength = 32
)

// # Entity

// Session is the persisted portal session record.
//
// # Invariant
//
// If UpstreamToken is present, at least one of ProfessionalsID / AgencyID
// must be resolvable — dependent calls fail fast otherwise. ProfileID starts
// empty and is assigned exactly once by the profile flow manager.
type Session struct {
	ID            string `json:"id"`
	TokenHash     string `json:"-"`
	UpstreamToken string `json:"-"`
	AccountType   string `json:"account_type"`

	// Upstream identity
	ProfessionalsID string `json:"professionals_id,omitempty"`
	AgencyID        string `json:"agency_id,omitempty"`
	ProfileID       string `json:"profile_id,omitempty"`
	UserName        string `json:"user_name"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	MobileNumber    string `json:"mobile_number"`

	// Audit trail
	IPAddress string    `json:"-"`
	UserAgent string    `json:"-"`
	IsRevoked bool      `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsLoggedIn reports whether the session still carries a usable upstream token.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.UpstreamToken != "" && !s.IsRevoked && time.Now().Before(s.ExpiresAt)
}

// SubjectID returns whichever upstream identity the session carries.
func (s *Session) SubjectID() string {
	if s.ProfessionalsID != "" {
		return s.ProfessionalsID
	}
	return s.AgencyID
}
