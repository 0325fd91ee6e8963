// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// memoryStore is a minimal in-memory [session.Store] for flow tests.
type memoryStore struct {
	profileIDs map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{profileIDs: map[string]string{}}
}

func (store *memoryStore) Create(context.Context, *session.Session) error { return nil }

func (store *memoryStore) FindByTokenHash(context.Context, string) (*session.Session, error) {
	return nil, apperr.NotFound("Session")
}

func (store *memoryStore) FindByID(context.Context, string) (*session.Session, error) {
	return nil, apperr.NotFound("Session")
}

func (store *memoryStore) SetProfileID(_ context.Context, id, profileID string) error {
	if existing, ok := store.profileIDs[id]; ok && existing != profileID {
		return apperr.Conflict("Session already has a different profile id")
	}
	store.profileIDs[id] = profileID
	return nil
}

func (store *memoryStore) Revoke(context.Context, string) error { return nil }

func (store *memoryStore) DeleteExpired(context.Context) (int64, error) { return 0, nil }

func TestEnsureProfileID_ReturnsExistingID(t *testing.T) {
	// No backend at all: an existing id must short-circuit before any call.
	manager := NewFlowManager(nil, newMemoryStore())

	profileID, err := manager.EnsureProfileID(context.Background(), &session.Session{
		ID:        "sess-1",
		ProfileID: "pp-already",
	})

	require.NoError(t, err)
	assert.Equal(t, "pp-already", profileID)
}

func TestEnsureProfileID_LazyCreation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/create/prof-77", func(w http.ResponseWriter, r *http.Request) {
		// The lazy upsert sends an explicitly empty payload.
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": map[string]any{"professionalsProfileId": "pp-new"},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	store := newMemoryStore()
	manager := NewFlowManager(upstream.NewClient(server.URL, testLogger()), store)

	sess := &session.Session{
		ID:              "sess-2",
		ProfessionalsID: "prof-77",
		UpstreamToken:   "bearer",
	}

	profileID, err := manager.EnsureProfileID(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, "pp-new", profileID)
	assert.Equal(t, "pp-new", sess.ProfileID, "the session carries the id for the rest of the request")
	assert.Equal(t, "pp-new", store.profileIDs["sess-2"], "the id survives beyond the request")
}

func TestEnsureProfileID_RequiresBasicInfoStep(t *testing.T) {
	manager := NewFlowManager(nil, newMemoryStore())

	_, err := manager.EnsureProfileID(context.Background(), &session.Session{ID: "sess-3"})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	assert.Contains(t, appErr.Message, "basic-info step")
}

func TestEnsureProfileID_GuardResetsOnError(t *testing.T) {
	var attempts atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/create/prof-88", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "temporary backend failure"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": map[string]any{"professionalsProfileId": "pp-retry"},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	manager := NewFlowManager(upstream.NewClient(server.URL, testLogger()), newMemoryStore())

	sess := &session.Session{
		ID:              "sess-4",
		ProfessionalsID: "prof-88",
		UpstreamToken:   "bearer",
	}

	_, err := manager.EnsureProfileID(context.Background(), sess)
	require.Error(t, err)
	assert.Empty(t, sess.ProfileID)

	// The failed attempt released the guard; a manual retry goes through.
	profileID, err := manager.EnsureProfileID(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "pp-retry", profileID)
}
