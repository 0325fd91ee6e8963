// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package session

import "context"

// Store persists portal sessions.
//
// Implementations must enforce that a session's ProfileID, once set to a
// non-empty value, is never overwritten with a different value. SetProfileID
// returns apperr.Conflict when a caller attempts exactly that.
type Store interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *Session) error

	// FindByTokenHash looks up an active (non-revoked, non-expired) session
	// by the SHA-256 hash of its portal token. Returns apperr.NotFound when
	// no such session exists.
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// FindByID looks up a session by primary key regardless of revocation
	// state. Returns apperr.NotFound when no row matches.
	FindByID(ctx context.Context, id string) (*Session, error)

	// SetProfileID records the lazily-created professionals profile id on a
	// session. Setting the same value again is a no-op; setting a different
	// value over an existing one fails with apperr.Conflict.
	SetProfileID(ctx context.Context, id, profileID string) error

	// Revoke marks a session revoked. Revoking an already-revoked session is
	// a no-op.
	Revoke(ctx context.Context, id string) error

	// DeleteExpired removes sessions past their expiry and returns how many
	// rows were deleted. Called by the background sweeper.
	DeleteExpired(ctx context.Context) (int64, error)
}
