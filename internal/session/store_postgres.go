// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/database/schema"
	"github.com/castlinehq/castline-api/internal/platform/dberr"
)

// # PostgreSQL Implementation

// PostgresStore is the pgx-backed implementation of [Store].
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a session store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

/*
Create inserts a new session row.

Parameters:
  - ctx: request context
  - s: session to persist; ID, TokenHash and ExpiresAt must already be set

Returns:
  - error: apperr.Conflict on a duplicate token hash, wrapped pgx error otherwise
*/
func (store *PostgresStore) Create(ctx context.Context, s *Session) error {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE, $15, NOW())`,
		t.Table,
		t.ID, t.TokenHash, t.UpstreamToken, t.AccountType,
		t.ProfessionalsID, t.AgencyID, t.ProfileID,
		t.UserName, t.Email, t.FirstName, t.LastName, t.MobileNumber,
		t.IPAddress, t.UserAgent, t.IsRevoked, t.ExpiresAt, t.CreatedAt,
	)

	_, err := store.pool.Exec(ctx, query,
		s.ID, s.TokenHash, s.UpstreamToken, s.AccountType,
		s.ProfessionalsID, s.AgencyID, s.ProfileID,
		s.UserName, s.Email, s.FirstName, s.LastName, s.MobileNumber,
		s.IPAddress, s.UserAgent, s.ExpiresAt,
	)
	if err != nil {
		return dberr.Classify(fmt.Errorf("postgres_session_create_failed: %w", err), "Session")
	}
	return nil
}

func selectColumns() string {
	t := schema.PortalSession
	return strings.Join([]string{
		t.ID, t.TokenHash, t.UpstreamToken, t.AccountType,
		t.ProfessionalsID, t.AgencyID, t.ProfileID,
		t.UserName, t.Email, t.FirstName, t.LastName, t.MobileNumber,
		t.IPAddress, t.UserAgent, t.IsRevoked, t.ExpiresAt, t.CreatedAt,
	}, ", ")
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.TokenHash, &s.UpstreamToken, &s.AccountType,
		&s.ProfessionalsID, &s.AgencyID, &s.ProfileID,
		&s.UserName, &s.Email, &s.FirstName, &s.LastName, &s.MobileNumber,
		&s.IPAddress, &s.UserAgent, &s.IsRevoked, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

/*
FindByTokenHash looks up an active session by portal token hash.

Revoked and expired sessions are filtered in SQL so a stolen token that was
revoked cannot resolve to a session even before the sweeper runs.

Parameters:
  - ctx: request context
  - tokenHash: hex SHA-256 of the portal token

Returns:
  - *Session: the matching active session
  - error: apperr.NotFound when no active session matches
*/
func (store *PostgresStore) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		  AND %s = FALSE
		  AND %s > NOW()`,
		selectColumns(), t.Table, t.TokenHash, t.IsRevoked, t.ExpiresAt,
	)

	s, err := scanSession(store.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, dberr.Classify(fmt.Errorf("postgres_session_find_by_token_failed: %w", err), "Session")
	}
	return s, nil
}

// FindByID looks up a session by primary key regardless of revocation state.
func (store *PostgresStore) FindByID(ctx context.Context, id string) (*Session, error) {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		selectColumns(), t.Table, t.ID,
	)

	s, err := scanSession(store.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Classify(fmt.Errorf("postgres_session_find_by_id_failed: %w", err), "Session")
	}
	return s, nil
}

/*
SetProfileID records the lazily-created professionals profile id.

The WHERE clause only matches rows whose profileid is empty or already equal
to the new value, which makes the assignment idempotent and refuses to
silently replace one profile id with another.

Parameters:
  - ctx: request context
  - id: session primary key
  - profileID: upstream profile id to record

Returns:
  - error: apperr.Conflict when the session already carries a different
    profile id, apperr.NotFound when the session does not exist
*/
func (store *PostgresStore) SetProfileID(ctx context.Context, id, profileID string) error {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2
		WHERE %s = $1
		  AND (%s = '' OR %s = $2)`,
		t.Table, t.ProfileID, t.ID, t.ProfileID, t.ProfileID,
	)

	tag, err := store.pool.Exec(ctx, query, id, profileID)
	if err != nil {
		return fmt.Errorf("postgres_session_set_profile_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing session from an immutable-profile conflict.
		if _, findErr := store.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return apperr.Conflict("Session already has a different profile id")
	}
	return nil
}

// Revoke marks a session revoked. Already-revoked sessions are left as is.
func (store *PostgresStore) Revoke(ctx context.Context, id string) error {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = NOW()
		WHERE %s = $1
		  AND %s = FALSE`,
		t.Table, t.IsRevoked, t.RevokedAt, t.ID, t.IsRevoked,
	)

	if _, err := store.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("postgres_session_revoke_failed: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry. Returns the row count so
// the sweeper can log its work.
func (store *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	t := schema.PortalSession
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s <= NOW()`,
		t.Table, t.ExpiresAt,
	)

	tag, err := store.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_delete_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
