// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestClient_Login verifies path construction and that credentials travel in
the JSON body, not the URL.
*/
func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agencyRegister/v1/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"userName":"maya"`)
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 200, "data": {"token": "tok-1", "professionalsId": "p-9"}}`))
	}))
	defer server.Close()

	client := upstream.NewClient(server.URL, testLogger())
	result := client.Login(context.Background(), upstream.LoginPayload{UserName: "maya", Password: "secret"})

	require.True(t, result.Success)
	assert.True(t, result.CodeIs(200))

	payload, ok := result.Payload().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tok-1", payload["token"])
}

/*
TestClient_GetProfile verifies the bearer token is attached per call and the
profile family path shape.
*/
func TestClient_GetProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/professionalsProfile/v1/get/prof-1", r.URL.Path)
		assert.Equal(t, "Bearer upstream-tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 1000, "data": {"professionalsProfileId": "prof-1"}}`))
	}))
	defer server.Close()

	client := upstream.NewClient(server.URL, testLogger())
	result := client.GetProfile(context.Background(), "upstream-tok", "prof-1")

	require.True(t, result.Success)
	assert.True(t, result.CodeIs(1000))
	assert.False(t, result.CodeIs(200))
}

/*
TestClient_CreateOrUpdateProfile_EmptyPayload verifies the lazy-create upsert
sends an empty JSON object, never a null body.
*/
func TestClient_CreateOrUpdateProfile_EmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/professionalsProfile/v1/create/p-42", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 1000, "data": {"professionalsProfileId": "prof-42"}}`))
	}))
	defer server.Close()

	client := upstream.NewClient(server.URL, testLogger())
	result := client.CreateOrUpdateProfile(context.Background(), "tok", "p-42", nil)

	require.True(t, result.Success)
}

/*
TestClient_UnreachableBackend verifies that a dead backend produces the
uniform failure envelope instead of an error return.
*/
func TestClient_UnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	client := upstream.NewClient(deadURL, testLogger())
	result := client.SendOTP(context.Background(), "maya@example.com")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Status)
	assert.True(t, result.ConnectionRefused())
}

/*
TestClient_DownloadFile verifies the authenticated media proxy request shape.
*/
func TestClient_DownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/downloadFile/", r.URL.Path)
		assert.Equal(t, "uploads/head.jpg", r.URL.Query().Get("filePath"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer server.Close()

	client := upstream.NewClient(server.URL, testLogger())
	response, err := client.DownloadFile(context.Background(), "tok", "uploads/head.jpg")
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, "image/jpeg", response.Header.Get("Content-Type"))
	body, _ := io.ReadAll(response.Body)
	assert.Equal(t, "jpegbytes", string(body))
}
