// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package account implements the portal's account lifecycle against the talent backend.

It covers registration, one-time-password (OTP) email verification, login, and
logout. The backend remains the single source of truth for accounts: this
package never stores credentials, it orchestrates backend calls and manages
the portal-side session that results from a successful login.

Architecture:

  - Service: Orchestrates business logic (Register, VerifyOTP, Login).
  - Backend: All account state lives upstream; calls go through [upstream.Client].
  - Sessions: Successful logins mint a portal session (PostgreSQL) plus an
    RSA-signed JWT access token.
  - Cooldowns: OTP resend countdowns are enforced in Redis before any
    upstream call is made.
*/
package account

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/platform/sec"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
	"github.com/castlinehq/castline-api/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for generating portal access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given identity.
	//
	// # Parameters
	//   - userID: The upstream account id.
	//   - username: The account's username.
	//   - accountType: "professional" or "agency".
	//   - sessionID: The portal session primary key.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, username, accountType, sessionID string, timeToLive time.Duration) (string, error)
}

// Backend captures the subset of upstream calls this service depends on.
type Backend interface {
	CreateAccount(ctx context.Context, payload upstream.RegisterPayload) upstream.Result
	CheckEmail(ctx context.Context, email string) upstream.Result
	CheckUserName(ctx context.Context, userName string) upstream.Result
	Login(ctx context.Context, payload upstream.LoginPayload) upstream.Result
	SendOTP(ctx context.Context, email string) upstream.Result
	VerifyOTP(ctx context.Context, email, code string) upstream.Result
}

// Service implements account lifecycle use cases.
type Service struct {
	backend       Backend
	sessionStore  session.Store
	cooldownStore CooldownStore
	tokenProvider TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	backend Backend,
	sessionStore session.Store,
	cooldownStore CooldownStore,
	tokenProvider TokenProvider,
) *Service {
	return &Service{
		backend:       backend,
		sessionStore:  sessionStore,
		cooldownStore: cooldownStore,
		tokenProvider: tokenProvider,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new portal member.
type RegisterInput struct {
	UserName     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	MobileNumber string
	AccountType  sec.AccountType
}

/*
Register creates a new upstream account and starts the OTP countdown.

Description: Forwards the enrollment to the backend's register endpoint
(success sentinel code 200). The backend sends the verification email itself;
on success this service only records the resend cooldown so an immediate
"resend code" click is rejected locally.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - map[string]any: The backend's created-account payload
  - err: Upstream failures or conflicts surfaced by the backend
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (any, error) {

	result := service.backend.CreateAccount(ctx, upstream.RegisterPayload{
		UserName:     input.UserName,
		Email:        input.Email,
		Password:     input.Password,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		MobileNumber: input.MobileNumber,
		AccountType:  string(input.AccountType),
	})
	if err := result.SentinelError(constants.UpstreamCodeOK); err != nil {
		return nil, err
	}

	// The backend dispatched the first OTP email as part of registration.
	// Start the countdown now so a resend inside the window never leaves
	// the gateway.
	if err := service.cooldownStore.Begin(ctx, input.Email, constants.OTPResendCooldown); err != nil {
		return nil, fmt.Errorf("account_service_cooldown_begin_failed: %w", err)
	}

	return result.Payload(), nil
}

/*
VerifyOTP confirms ownership of the registered email address.

Parameters:
  - ctx: context.Context
  - email: string
  - code: string

Returns:
  - err: Upstream rejection (wrong or expired code) or transport failures
*/
func (service *Service) VerifyOTP(ctx context.Context, email, code string) error {
	result := service.backend.VerifyOTP(ctx, email, code)
	return result.SentinelError(constants.UpstreamCodeOK)
}

/*
ResendOTP re-sends the verification code, honoring the countdown window.

Description: If a cooldown is still active for the email, the request is
rejected with a RateLimited error carrying the remaining seconds, and the
backend is never contacted. A successful resend restarts the window.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - err: RateLimited while the countdown runs, or upstream failures
*/
func (service *Service) ResendOTP(ctx context.Context, email string) error {

	remaining, err := service.cooldownStore.Remaining(ctx, email)
	if err != nil {
		return fmt.Errorf("account_service_cooldown_check_failed: %w", err)
	}
	if remaining > 0 {
		// Reject locally. The countdown exists precisely so repeated clicks
		// do not hammer the backend's mail dispatcher.
		seconds := int(remaining.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return apperr.RateLimited(seconds)
	}

	result := service.backend.SendOTP(ctx, email)
	if err := result.SentinelError(constants.UpstreamCodeOK); err != nil {
		return err
	}

	if err := service.cooldownStore.Begin(ctx, email, constants.OTPResendCooldown); err != nil {
		return fmt.Errorf("account_service_cooldown_begin_failed: %w", err)
	}
	return nil
}

// # Availability Checks

// CheckEmail asks the backend whether an email is free to register.
func (service *Service) CheckEmail(ctx context.Context, email string) (any, error) {
	result := service.backend.CheckEmail(ctx, email)
	if err := result.AsError(); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}

// CheckUserName asks the backend whether a username is free to register.
func (service *Service) CheckUserName(ctx context.Context, userName string) (any, error) {
	result := service.backend.CheckUserName(ctx, userName)
	if err := result.AsError(); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	UserName  string
	Password  string
	UserAgent string
	IPAddress string
}

// PortalSession represents a successfully established portal session.
type PortalSession struct {
	AccessToken          string
	PortalToken          string
	PortalTokenExpiresAt time.Time
	Session              *session.Session
}

/*
Login authenticates against the backend and mints a portal session.

Description: Forwards the credentials to the backend's login endpoint,
captures the upstream bearer token from the response, and persists a portal
session binding it to a fresh opaque portal token. Also issues a short-lived
JWT access token carrying the session id.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *PortalSession: Transport-ready session identifiers
  - err: Unauthorized, upstream, or storage failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*PortalSession, error) {

	result := service.backend.Login(ctx, upstream.LoginPayload{
		UserName: input.UserName,
		Password: input.Password,
	})
	// Status == 0 means no response reached the gateway (refused, timeout,
	// TLS, reset). A backend outage must not read as a wrong password.
	if result.Status == 0 {
		return nil, result.AsError()
	}
	if !result.Success || !result.CodeIs(constants.UpstreamCodeOK) {
		// Generic message to prevent enumeration; the backend's own wording
		// is still logged via the upstream client.
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	identity, err := extractIdentity(result)
	if err != nil {
		return nil, err
	}

	// Generate the opaque portal token. Only its hash is persisted.
	portalToken, err := sec.GenerateSecureToken(session.TokenLength)
	if err != nil {
		return nil, fmt.Errorf("account_service_portal_token_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	expiresAt := time.Now().Add(session.TTL)
	portalSession := &session.Session{
		ID:              uuidv7.New(),
		TokenHash:       sec.HashToken(portalToken),
		UpstreamToken:   identity.Token,
		AccountType:     identity.AccountType,
		ProfessionalsID: identity.ProfessionalsID,
		AgencyID:        identity.AgencyID,
		UserName:        identity.UserName,
		Email:           identity.Email,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		MobileNumber:    identity.MobileNumber,
		UserAgent:       input.UserAgent,
		IPAddress:       input.IPAddress,
		ExpiresAt:       expiresAt,
	}

	if err := service.sessionStore.Create(ctx, portalSession); err != nil {
		return nil, fmt.Errorf("account_service_session_creation_failed: %w", err)
	}

	subjectID := portalSession.SubjectID()
	accessToken, err := service.tokenProvider.GenerateAccessToken(
		subjectID, identity.UserName, identity.AccountType, portalSession.ID, AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("account_service_token_generation_failed: %w", err)
	}

	return &PortalSession{
		AccessToken:          accessToken,
		PortalToken:          portalToken,
		PortalTokenExpiresAt: expiresAt,
		Session:              portalSession,
	}, nil
}

/*
Logout permanently revokes the portal session bound to the given token.

Description: Idempotent. An unknown or already-revoked token is treated as a
successful logout.

Parameters:
  - ctx: context.Context
  - portalToken: string

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(ctx context.Context, portalToken string) error {

	tokenHash := sec.HashToken(portalToken)

	found, err := service.sessionStore.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		// Unknown or already-expired tokens make logout a no-op. Storage
		// failures still surface instead of masquerading as success.
		if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("account_service_logout_lookup_failed: %w", err)
	}

	if err := service.sessionStore.Revoke(ctx, found.ID); err != nil {
		return fmt.Errorf("account_service_logout_failed: %w", err)
	}
	return nil
}

// # Session Resolution

/*
ResolveSession loads the active portal session for an opaque portal token.

Parameters:
  - ctx: context.Context
  - portalToken: string

Returns:
  - *session.Session: The active session
  - err: Unauthorized when the token resolves to nothing
*/
func (service *Service) ResolveSession(ctx context.Context, portalToken string) (*session.Session, error) {
	found, err := service.sessionStore.FindByTokenHash(ctx, sec.HashToken(portalToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired portal session")
	}
	return found, nil
}

/*
CurrentSession loads the session referenced by an access token's sid claim.

Parameters:
  - ctx: context.Context
  - sessionID: string

Returns:
  - *session.Session: The active session
  - err: Unauthorized when the session is gone, revoked, or expired
*/
func (service *Service) CurrentSession(ctx context.Context, sessionID string) (*session.Session, error) {
	found, err := service.sessionStore.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Unauthorized("Portal session not found")
	}
	if !found.IsLoggedIn() {
		return nil, apperr.Unauthorized("Portal session is revoked or expired")
	}
	return found, nil
}

// # Upstream Payload Mapping

// upstreamIdentity is the identity snapshot extracted from a login response.
type upstreamIdentity struct {
	Token           string
	AccountType     string
	ProfessionalsID string
	AgencyID        string
	UserName        string
	Email           string
	FirstName       string
	LastName        string
	MobileNumber    string
}

// extractIdentity maps the backend's login payload onto a typed snapshot.
//
// The backend nests the interesting fields under "data" on some deployments
// and at the top level on others; Result.Payload already resolves that.
func extractIdentity(result upstream.Result) (*upstreamIdentity, error) {
	payload, ok := result.Payload().(map[string]any)
	if !ok {
		return nil, apperr.Upstream("Login response is missing its payload")
	}

	identity := &upstreamIdentity{
		Token:           payloadString(payload, "token", "accessToken"),
		AccountType:     payloadString(payload, "accountType", "userType"),
		ProfessionalsID: payloadString(payload, "professionalsId", "professionalId"),
		AgencyID:        payloadString(payload, "agencyId"),
		UserName:        payloadString(payload, "userName", "username"),
		Email:           payloadString(payload, "email"),
		FirstName:       payloadString(payload, "firstName"),
		LastName:        payloadString(payload, "lastName"),
		MobileNumber:    payloadString(payload, "mobileNumber"),
	}

	if identity.Token == "" {
		return nil, apperr.Upstream("Login response did not include a bearer token")
	}
	if identity.ProfessionalsID == "" && identity.AgencyID == "" {
		return nil, apperr.Upstream("Login response did not include an account id")
	}
	return identity, nil
}

// payloadString returns the first non-empty string among the candidate keys.
func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && value != "" {
			return value
		}
		// Numeric ids arrive as float64 through encoding/json.
		if value, ok := payload[key].(float64); ok {
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}
