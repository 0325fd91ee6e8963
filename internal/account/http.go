// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/platform/middleware"
	requestutil "github.com/castlinehq/castline-api/internal/platform/request"
	"github.com/castlinehq/castline-api/internal/platform/respond"
	"github.com/castlinehq/castline-api/internal/platform/sec"
	"github.com/castlinehq/castline-api/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements account-related HTTP endpoints.
//
// # Scope
//
// This handler manages the account lifecycle entry points (registration,
// OTP verification, login) plus session introspection.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with account-specific routes.
//
// # Endpoints
//   - POST /register   : Creates a new backend account.
//   - POST /login      : Authenticates and mints a portal session.
//   - POST /verify-otp : Confirms email ownership.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/verify-otp", handler.verifyOTP)
	router.Post("/resend-otp", handler.resendOTP)
	router.Get("/check-email", handler.checkEmail)
	router.Get("/check-username", handler.checkUserName)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNumber string `json:"mobileNumber"`
	AccountType  string `json:"accountType"`
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

/*
Register creates a new backend account through the portal.

POST /api/v1/account/register

Description: Validates input, forwards the enrollment upstream, and starts
the OTP resend countdown for the new email.

Request:
  - Body: registerRequest

Response:
  - 201: Created account payload from the backend
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 502: Upstream failure envelope
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserName, input.UserName).
		MinLen(FieldUserName, input.UserName, 3).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		Required(FieldMobileNumber, input.MobileNumber).
		OneOf(FieldAccountType, input.AccountType,
			string(sec.AccountProfessional), string(sec.AccountAgency))

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.accountService.Register(request.Context(), RegisterInput{
		UserName:     input.UserName,
		Email:        input.Email,
		Password:     input.Password,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		MobileNumber: input.MobileNumber,
		AccountType:  sec.AccountType(input.AccountType),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
VerifyOTP confirms a registered email using the mailed one-time code.

POST /api/v1/account/verify-otp

Request:
  - Body: verifyOTPRequest (Email, OTP)

Response:
  - 200: Success message
  - 400: ErrInvalidJSON: Missing email or malformed code
  - 502: Upstream rejection (wrong or expired code)
*/
func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	var input verifyOTPRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldOTP, input.OTP).
		Digits(FieldOTP, input.OTP, constants.OTPLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.VerifyOTP(request.Context(), input.Email, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Email verified successfully",
	})
}

/*
ResendOTP requests a fresh verification code for an email.

POST /api/v1/account/resend-otp

Description: Rejected with 429 while the countdown from the previous send is
still running; the backend is not contacted in that case.

Request:
  - Body: resendOTPRequest (Email)

Response:
  - 200: Success message
  - 429: Countdown still active
  - 502: Upstream failure envelope
*/
func (handler *Handler) resendOTP(writer http.ResponseWriter, request *http.Request) {
	var input resendOTPRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ResendOTP(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "A new verification code has been sent",
	})
}

/*
Login authenticates a user and establishes a portal session.

POST /api/v1/account/login

Description: Verifies credentials upstream, persists a portal session bound
to the upstream bearer token, and injects a secure session cookie.

Request:
  - Body: loginRequest (UserName, Password)

Response:
  - 200: Access token and session snapshot
  - 401: ErrUnauthorized: Invalid credentials
  - 502: Backend unreachable
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserName, input.UserName)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	portalSession, err := handler.accountService.Login(request.Context(), LoginInput{
		UserName:  input.UserName,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: getClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.PortalTokenCookieName,
		Value:    portalSession.PortalToken,
		Path:     constants.PortalTokenCookiePath,
		Expires:  portalSession.PortalTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, map[string]any{
		FieldAccessToken: portalSession.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   AccessTokenTTL / time.Second,
		"session":        portalSession.Session,
	})
}

/*
Logout terminates the current portal session.

POST /api/v1/account/logout

Description: Revokes the session bound to the portal cookie (if present)
and clears the cookie from the client.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.PortalTokenCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		_ = handler.accountService.Logout(request.Context(), cookie.Value)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.PortalTokenCookieName,
		Value:    "",
		Path:     constants.PortalTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
Me returns the authenticated user's session snapshot.

GET /api/v1/account/me

Response:
  - 200: session.Session: Current identity and profile linkage
  - 401: ErrUnauthorized: Session revoked or expired
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.accountService.CurrentSession(request.Context(), claims.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, current)
}

/*
CheckEmail reports whether an email address is free to register.

GET /api/v1/account/check-email?email=...

Response:
  - 200: Backend availability payload
  - 400: Missing or malformed email
*/
func (handler *Handler) checkEmail(writer http.ResponseWriter, request *http.Request) {
	email := request.URL.Query().Get(FieldEmail)

	v := &validate.Validator{}
	v.Required(FieldEmail, email).Email(FieldEmail, email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := handler.accountService.CheckEmail(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, payload)
}

/*
CheckUserName reports whether a username is free to register.

GET /api/v1/account/check-username?userName=...

Response:
  - 200: Backend availability payload
  - 400: Missing username
*/
func (handler *Handler) checkUserName(writer http.ResponseWriter, request *http.Request) {
	userName := request.URL.Query().Get(FieldUserName)

	if userName == "" {
		respond.Error(writer, request, apperr.ValidationError("userName query parameter is required"))
		return
	}

	payload, err := handler.accountService.CheckUserName(request.Context(), userName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, payload)
}

// getClientIP tries to extract the real IP address of a user over proxy environments.
func getClientIP(request *http.Request) string {

	ip := request.Header.Get(constants.HeaderXRealIP)
	if ip == "" {
		ip = request.Header.Get(constants.HeaderXForwardedFor)
	}

	if ip == "" {
		ip = request.RemoteAddr
	}
	return ip
}
