// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeProfileEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 1000, "status": "SUCCESS", "data": data})
}

func TestFetch_BasicInfoEmailFallback(t *testing.T) {
	emailBasicInfo := map[string]any{
		"fullName": "Avery North",
		"email":    "avery@castline.app",
		"phoneNo":  "+94771234567",
		"category": "model",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/get/prof-profile-1", func(w http.ResponseWriter, r *http.Request) {
		// Composite arrives without a usable basicInfo but with an id hint.
		writeProfileEnvelope(w, map[string]any{
			"basicInfoId": "bi-9",
			"educations":  []any{map[string]any{"school": "Uni"}},
		})
	})
	mux.HandleFunc("/basicInfo/v1/get/bi-9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "basic info not found"})
	})
	mux.HandleFunc("/basicInfo/v1/getByEmail", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "avery@castline.app", r.URL.Query().Get("email"))
		writeProfileEnvelope(w, emailBasicInfo)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	assembler := NewAssembler(upstream.NewClient(server.URL, testLogger()), testLogger())

	composite, err := assembler.Fetch(context.Background(), "bearer", "prof-profile-1", "avery@castline.app")
	require.NoError(t, err)

	// The email fallback's payload is the final basic info.
	assert.Equal(t, SectionPresent, composite.BasicInfo.State)
	assert.Equal(t, "Avery North", composite.FullName())
	assert.Equal(t, emailBasicInfo, composite.BasicInfo.Value)

	// Derived fields follow the recovered section.
	assert.Equal(t, "avery-north", composite.DisplayHandle)
	assert.Equal(t, 40, composite.CompletionScore) // basic info + education
}

func TestFetch_BasicInfoConfirmedAbsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/get/prof-profile-2", func(w http.ResponseWriter, r *http.Request) {
		writeProfileEnvelope(w, map[string]any{})
	})
	mux.HandleFunc("/basicInfo/v1/getByEmail", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "no basic info"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	assembler := NewAssembler(upstream.NewClient(server.URL, testLogger()), testLogger())

	composite, err := assembler.Fetch(context.Background(), "bearer", "prof-profile-2", "ghost@castline.app")
	require.NoError(t, err)

	// A failed recovery resolves to confirmed-absent, never not-fetched, so
	// downstream code can tell "no data" apart from "never looked".
	assert.Equal(t, SectionAbsent, composite.BasicInfo.State)
	assert.Equal(t, 0, composite.CompletionScore)
}

func TestFetch_SurfacesUpstreamMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/get/prof-profile-3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 5000, "message": "profile is archived"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	assembler := NewAssembler(upstream.NewClient(server.URL, testLogger()), testLogger())

	_, err := assembler.Fetch(context.Background(), "bearer", "prof-profile-3", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile is archived")
}

func TestFetch_DeduplicatesConcurrentCalls(t *testing.T) {
	var profileHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/professionalsProfile/v1/get/prof-profile-4", func(w http.ResponseWriter, r *http.Request) {
		profileHits.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeProfileEnvelope(w, map[string]any{
			"basicInfo": map[string]any{"fullName": "Avery North"},
		})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	assembler := NewAssembler(upstream.NewClient(server.URL, testLogger()), testLogger())

	var wg sync.WaitGroup
	results := make([]*CompositeProfile, 4)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			composite, err := assembler.Fetch(context.Background(), "bearer", "prof-profile-4", "")
			assert.NoError(t, err)
			results[slot] = composite
		}(i)
	}
	wg.Wait()

	// All callers share one upstream fetch.
	assert.Equal(t, int64(1), profileHits.Load())
	for _, composite := range results {
		require.NotNil(t, composite)
		assert.Equal(t, "Avery North", composite.FullName())
	}
}
