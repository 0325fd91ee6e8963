// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
)

// Postgres SQLSTATE codes we care about. Everything else stays internal.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Classify inspects a database error and wraps it into a meaningful
// [apperr.AppError]. It hides internal database details from the client while
// classifying the error type. The resource name is used to build the
// client-facing message ("Session not found", "Session already exists").
//
// The err chain is preserved through fmt.Errorf %w wrapping, so callers may
// annotate the error with query context before classifying it.
func Classify(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case codeForeignKeyViolation:
			return apperr.Conflict(resource + " references a missing record")
		}
	}

	return apperr.Internal(err)
}
