// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package dberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
)

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify(nil, "Session"))
}

func TestClassify_NoRows(t *testing.T) {
	err := Classify(fmt.Errorf("postgres_session_find_failed: %w", pgx.ErrNoRows), "Session")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, "Session not found", appErr.Message)
}

func TestClassify_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "session_tokenhash_key"}
	err := Classify(fmt.Errorf("postgres_session_create_failed: %w", pgErr), "Session")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestClassify_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Classify(cause, "Session")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}
