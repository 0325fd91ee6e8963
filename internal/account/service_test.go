// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// # Test Doubles

// memorySessionStore is an in-memory [session.Store] for service tests.
type memorySessionStore struct {
	sessions map[string]*session.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*session.Session{}}
}

func (store *memorySessionStore) Create(_ context.Context, s *session.Session) error {
	copied := *s
	store.sessions[s.ID] = &copied
	return nil
}

func (store *memorySessionStore) FindByTokenHash(_ context.Context, tokenHash string) (*session.Session, error) {
	for _, s := range store.sessions {
		if s.TokenHash == tokenHash && !s.IsRevoked && time.Now().Before(s.ExpiresAt) {
			return s, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (store *memorySessionStore) FindByID(_ context.Context, id string) (*session.Session, error) {
	s, ok := store.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	return s, nil
}

func (store *memorySessionStore) SetProfileID(_ context.Context, id, profileID string) error {
	s, ok := store.sessions[id]
	if !ok {
		return apperr.NotFound("Session")
	}
	if s.ProfileID != "" && s.ProfileID != profileID {
		return apperr.Conflict("Session already has a different profile id")
	}
	s.ProfileID = profileID
	return nil
}

func (store *memorySessionStore) Revoke(_ context.Context, id string) error {
	if s, ok := store.sessions[id]; ok {
		s.IsRevoked = true
	}
	return nil
}

func (store *memorySessionStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// stubTokenProvider returns a fixed token and records the last call.
type stubTokenProvider struct {
	lastSessionID string
}

func (provider *stubTokenProvider) GenerateAccessToken(_, _, _, sessionID string, _ time.Duration) (string, error) {
	provider.lastSessionID = sessionID
	return "stub.jwt.token", nil
}

// # Fixtures

// newBackendFixture starts a fake talent backend and returns the wired
// service plus probes into its collaborators.
type backendFixture struct {
	service      *Service
	sessions     *memorySessionStore
	tokens       *stubTokenProvider
	redis        *miniredis.Miniredis
	otpSendCount *atomic.Int64
}

func newBackendFixture(t *testing.T) *backendFixture {
	t.Helper()

	var otpSends atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/agencyRegister/v1/create", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]any{"id": "acc-1", "email": "new@castline.app"})
	})
	mux.HandleFunc("/agencyRegister/v1/sendOtp", func(w http.ResponseWriter, r *http.Request) {
		otpSends.Add(1)
		writeEnvelope(w, 200, map[string]any{"sent": true})
	})
	mux.HandleFunc("/agencyRegister/v1/verifyOtp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] == "123456" {
			writeEnvelope(w, 200, map[string]any{"verified": true})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 400, "error": "Invalid verification code"})
	})
	mux.HandleFunc("/agencyRegister/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"code": 401, "error": "Bad credentials"})
			return
		}
		writeEnvelope(w, 200, map[string]any{
			"token":           "upstream-bearer-token",
			"accountType":     "professional",
			"professionalsId": "prof-77",
			"userName":        body["userName"],
			"email":           "talent@castline.app",
			"firstName":       "Avery",
			"lastName":        "North",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := newMemorySessionStore()
	tokens := &stubTokenProvider{}
	service := NewService(
		upstream.NewClient(server.URL, logger),
		sessions,
		NewCooldownStore(redisClient),
		tokens,
	)

	return &backendFixture{
		service:      service,
		sessions:     sessions,
		tokens:       tokens,
		redis:        mr,
		otpSendCount: &otpSends,
	}
}

func writeEnvelope(w http.ResponseWriter, code int, data map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "status": "OK", "data": data})
}

// # OTP Cooldown

func TestResendOTP_CooldownRejectsLocally(t *testing.T) {
	fixture := newBackendFixture(t)
	ctx := context.Background()

	// First resend goes upstream and starts the countdown.
	require.NoError(t, fixture.service.ResendOTP(ctx, "talent@castline.app"))
	assert.Equal(t, int64(1), fixture.otpSendCount.Load())

	// Second resend inside the window is rejected without an upstream call.
	err := fixture.service.ResendOTP(ctx, "talent@castline.app")
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus)
	assert.Equal(t, int64(1), fixture.otpSendCount.Load())

	// Once the window lapses, resend flows upstream again.
	fixture.redis.FastForward(constants.OTPResendCooldown + time.Second)
	require.NoError(t, fixture.service.ResendOTP(ctx, "talent@castline.app"))
	assert.Equal(t, int64(2), fixture.otpSendCount.Load())
}

func TestRegister_StartsCooldown(t *testing.T) {
	fixture := newBackendFixture(t)
	ctx := context.Background()

	created, err := fixture.service.Register(ctx, RegisterInput{
		UserName:    "newtalent",
		Email:       "new@castline.app",
		Password:    "hunter2hunter2",
		FirstName:   "New",
		LastName:    "Talent",
		AccountType: "professional",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// Registration itself triggered the first email upstream; an immediate
	// resend must be blocked by the countdown.
	err = fixture.service.ResendOTP(ctx, "new@castline.app")
	require.Error(t, err)
	assert.Equal(t, int64(0), fixture.otpSendCount.Load())
}

func TestVerifyOTP(t *testing.T) {
	fixture := newBackendFixture(t)
	ctx := context.Background()

	require.NoError(t, fixture.service.VerifyOTP(ctx, "talent@castline.app", "123456"))

	err := fixture.service.VerifyOTP(ctx, "talent@castline.app", "000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid verification code")
}

// # Login

func TestLogin_MintsPortalSession(t *testing.T) {
	fixture := newBackendFixture(t)
	ctx := context.Background()

	portalSession, err := fixture.service.Login(ctx, LoginInput{
		UserName:  "avery",
		Password:  "correct-horse",
		UserAgent: "castline-test",
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.Equal(t, "stub.jwt.token", portalSession.AccessToken)
	assert.NotEmpty(t, portalSession.PortalToken)

	stored := portalSession.Session
	require.NotNil(t, stored)
	assert.Equal(t, "upstream-bearer-token", stored.UpstreamToken)
	assert.Equal(t, "professional", stored.AccountType)
	assert.Equal(t, "prof-77", stored.ProfessionalsID)
	assert.Equal(t, "avery", stored.UserName)
	assert.Empty(t, stored.ProfileID)

	// The portal token itself is never persisted, only its hash.
	assert.NotEqual(t, portalSession.PortalToken, stored.TokenHash)
	assert.Equal(t, stored.ID, fixture.tokens.lastSessionID)

	// The opaque token resolves back to the same session.
	resolved, err := fixture.service.ResolveSession(ctx, portalSession.PortalToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, resolved.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	fixture := newBackendFixture(t)

	_, err := fixture.service.Login(context.Background(), LoginInput{
		UserName: "avery",
		Password: "wrong",
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

// unreachableBackend yields the Status == 0 envelope shape of a login call
// where no response reached the gateway (timeout, TLS failure, reset).
type unreachableBackend struct {
	Backend
}

func (unreachableBackend) Login(context.Context, upstream.LoginPayload) upstream.Result {
	return upstream.Result{
		Success: false,
		Status:  0,
		Data: map[string]any{
			"error":             "Request to backend failed",
			"details":           "Client.Timeout exceeded while awaiting headers",
			"connectionRefused": false,
		},
	}
}

func TestLogin_TransportFailureIsNotUnauthorized(t *testing.T) {
	service := NewService(unreachableBackend{}, newMemorySessionStore(), nil, &stubTokenProvider{})

	_, err := service.Login(context.Background(), LoginInput{
		UserName: "avery",
		Password: "correct-horse",
	})
	require.Error(t, err)

	// A backend outage must never read as a credential failure.
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.NotContains(t, appErr.Message, "credentials")
}

func TestLogout_Idempotent(t *testing.T) {
	fixture := newBackendFixture(t)
	ctx := context.Background()

	portalSession, err := fixture.service.Login(ctx, LoginInput{
		UserName: "avery",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, portalSession.PortalToken))

	// The revoked session no longer resolves.
	_, err = fixture.service.ResolveSession(ctx, portalSession.PortalToken)
	require.Error(t, err)

	// Logging out again is still a success.
	require.NoError(t, fixture.service.Logout(ctx, portalSession.PortalToken))
	require.NoError(t, fixture.service.Logout(ctx, "never-issued-token"))
}

// brokenSessionStore fails every lookup the way a DB outage would.
type brokenSessionStore struct {
	*memorySessionStore
}

func (brokenSessionStore) FindByTokenHash(context.Context, string) (*session.Session, error) {
	return nil, errors.New("postgres_session_find_by_token_failed: connection reset")
}

func TestLogout_PropagatesStorageFailure(t *testing.T) {
	store := brokenSessionStore{newMemorySessionStore()}
	service := NewService(unreachableBackend{}, store, nil, &stubTokenProvider{})

	// Only unknown tokens are a no-op; a storage outage must surface.
	err := service.Logout(context.Background(), "some-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
