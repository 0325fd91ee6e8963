// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package portfolio

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// fixedProfile is a ProfileResolver that always returns the same id.
type fixedProfile struct{ id string }

func (resolver fixedProfile) EnsureProfileID(context.Context, *session.Session) (string, error) {
	return resolver.id, nil
}

type entryFixture struct {
	service     *Service
	savedBodies *[]map[string]any
	deletedIDs  *[]string
	deleteHits  *atomic.Int64
}

func newEntryFixture(t *testing.T) *entryFixture {
	t.Helper()

	var savedBodies []map[string]any
	var deletedIDs []string
	var deleteHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/education/v1/saveOrUpdate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		savedBodies = append(savedBodies, body)

		// The backend assigns the server id on create and echoes it on update.
		id, _ := body["id"].(string)
		if id == "" {
			id = "srv-education-1"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": map[string]any{"id": id, "school": body["school"]},
		})
	})
	mux.HandleFunc("/education/v1/delete/", func(w http.ResponseWriter, r *http.Request) {
		deleteHits.Add(1)
		deletedIDs = append(deletedIDs, r.URL.Path[len("/education/v1/delete/"):])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 1000, "data": map[string]any{}})
	})
	mux.HandleFunc("/education/v1/getByProfile/pp-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": []any{
				map[string]any{"id": "srv-education-1", "school": "Uni"},
				map[string]any{"id": "srv-education-2", "school": "College"},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(
		upstream.NewClient(server.URL, logger),
		NewStatusStore(redisClient),
		fixedProfile{id: "pp-1"},
	)

	return &entryFixture{
		service:     service,
		savedBodies: &savedBodies,
		deletedIDs:  &deletedIDs,
		deleteHits:  &deleteHits,
	}
}

func testSession() *session.Session {
	return &session.Session{
		ID:              "sess-1",
		UpstreamToken:   "bearer",
		ProfessionalsID: "prof-1",
	}
}

func TestEntryLifecycle_TempIDAdoption(t *testing.T) {
	fixture := newEntryFixture(t)
	ctx := context.Background()
	sess := testSession()

	// 1. Mint a draft.
	draft, err := fixture.service.NewDraft(ctx, sess, upstream.ResourceEducation)
	require.NoError(t, err)
	require.NotEmpty(t, draft.ID)
	assert.False(t, draft.Submitted)

	// 2. First save: the temp id must never reach the backend.
	saved, err := fixture.service.SaveEntry(ctx, sess, upstream.ResourceEducation, map[string]any{
		"id":     draft.ID,
		"school": "Uni",
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-education-1", saved.ID)
	assert.True(t, saved.Submitted)

	firstBody := (*fixture.savedBodies)[0]
	_, sentID := firstBody["id"]
	assert.False(t, sentID, "first save must strip the temporary id")
	assert.Equal(t, "pp-1", firstBody["professionalsProfileId"])

	// 3. A later save still using the stale temp id is translated.
	updated, err := fixture.service.SaveEntry(ctx, sess, upstream.ResourceEducation, map[string]any{
		"id":     draft.ID,
		"school": "Uni (updated)",
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-education-1", updated.ID)

	secondBody := (*fixture.savedBodies)[1]
	assert.Equal(t, "srv-education-1", secondBody["id"], "stale temp id must be replaced by the server id")

	// 4. Delete by the stale temp id also targets the server id.
	require.NoError(t, fixture.service.DeleteEntry(ctx, sess, upstream.ResourceEducation, draft.ID))
	require.Len(t, *fixture.deletedIDs, 1)
	assert.Equal(t, "srv-education-1", (*fixture.deletedIDs)[0])
}

func TestDeleteEntry_UnsavedDraftSkipsBackend(t *testing.T) {
	fixture := newEntryFixture(t)
	ctx := context.Background()
	sess := testSession()

	draft, err := fixture.service.NewDraft(ctx, sess, upstream.ResourceEducation)
	require.NoError(t, err)

	require.NoError(t, fixture.service.DeleteEntry(ctx, sess, upstream.ResourceEducation, draft.ID))
	assert.Equal(t, int64(0), fixture.deleteHits.Load(), "an unsaved draft has nothing to delete upstream")
}

func TestListEntries_AnnotatesSubmission(t *testing.T) {
	fixture := newEntryFixture(t)
	ctx := context.Background()
	sess := testSession()

	// Save only the first entry through the gateway.
	_, err := fixture.service.SaveEntry(ctx, sess, upstream.ResourceEducation, map[string]any{
		"id":     "srv-education-1",
		"school": "Uni",
	})
	require.NoError(t, err)

	entries, err := fixture.service.ListEntries(ctx, sess, upstream.ResourceEducation)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "srv-education-1", entries[0].ID)
	assert.True(t, entries[0].Submitted)
	assert.Equal(t, "srv-education-2", entries[1].ID)
	assert.False(t, entries[1].Submitted, "entries saved outside the gateway are unsubmitted")
}

func TestSaveEntry_EditClearsSubmissionOnFailure(t *testing.T) {
	var fail atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/education/v1/saveOrUpdate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "save rejected"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": map[string]any{"id": "srv-9"},
		})
	})
	mux.HandleFunc("/education/v1/getByProfile/pp-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 1000,
			"data": []any{map[string]any{"id": "srv-9"}},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(upstream.NewClient(server.URL, logger), NewStatusStore(redisClient), fixedProfile{id: "pp-1"})

	ctx := context.Background()
	sess := testSession()

	_, err := service.SaveEntry(ctx, sess, upstream.ResourceEducation, map[string]any{"id": "srv-9"})
	require.NoError(t, err)

	// A failed edit leaves the entry unsubmitted until re-saved.
	fail.Store(true)
	_, err = service.SaveEntry(ctx, sess, upstream.ResourceEducation, map[string]any{"id": "srv-9"})
	require.Error(t, err)

	entries, err := service.ListEntries(ctx, sess, upstream.ResourceEducation)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Submitted)
}
