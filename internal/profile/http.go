// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castlinehq/castline-api/internal/platform/middleware"
	requestutil "github.com/castlinehq/castline-api/internal/platform/request"
	"github.com/castlinehq/castline-api/internal/platform/respond"
	"github.com/castlinehq/castline-api/internal/platform/sec"
	"github.com/castlinehq/castline-api/internal/platform/validate"
	"github.com/castlinehq/castline-api/internal/session"
)

// SessionResolver loads the active portal session for an access token's sid.
type SessionResolver interface {
	CurrentSession(ctx context.Context, sessionID string) (*session.Session, error)
}

// Handler implements profile-related HTTP endpoints.
type Handler struct {
	profileService *Service
	sessions       SessionResolver
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, sessions SessionResolver) *Handler {
	return &Handler{profileService: service, sessions: sessions}
}

// Routes returns a [chi.Router] configured with profile-specific routes.
//
// Every route requires an authenticated professional account; agency
// accounts have no composite profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)
	router.Use(middleware.RequireAccountType(sec.AccountProfessional))

	router.Get("/", handler.overview)
	router.Put("/", handler.save)
	router.Post("/style-profile", handler.attachSection(SectionStyleProfile))
	router.Post("/showcase", handler.attachSection(SectionShowcase))
	router.Post("/preferences", handler.attachSection(SectionPreferences))

	return router
}

// currentSession resolves the caller's portal session from the JWT claims.
func (handler *Handler) currentSession(request *http.Request) (*session.Session, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return nil, err
	}
	return handler.sessions.CurrentSession(request.Context(), claims.SessionID)
}

/*
Overview returns the assembled composite profile with its completion score.

GET /api/v1/profile

Description: Lazily creates the profile record on first access. The response
marks each optional section as present or confirmed-absent so the client can
render "add this section" prompts precisely.

Response:
  - 200: CompositeProfile
  - 401: ErrUnauthorized: Session revoked or expired
  - 422: Basic-info step not completed yet
  - 502: Upstream failure envelope
*/
func (handler *Handler) overview(writer http.ResponseWriter, request *http.Request) {
	sess, err := handler.currentSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	composite, err := handler.profileService.Overview(request.Context(), sess)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, composite)
}

/*
Save persists top-level profile fields.

PUT /api/v1/profile

Request:
  - Body: profile fields, forwarded to the backend verbatim

Response:
  - 200: Updated profile payload from the backend
  - 400: ErrInvalidJSON
  - 502: Upstream failure envelope
*/
func (handler *Handler) save(writer http.ResponseWriter, request *http.Request) {
	sess, err := handler.currentSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload map[string]any
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updated, err := handler.profileService.Save(request.Context(), sess, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// attachSection builds the handler for one section-link endpoint.
//
// POST /api/v1/profile/{style-profile|showcase|preferences}
func (handler *Handler) attachSection(kind SectionKind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		sess, err := handler.currentSession(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var payload map[string]any
		if err := requestutil.DecodeJSON(request, &payload); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}

		updated, err := handler.profileService.AttachSection(request.Context(), sess, kind, payload)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, updated)
	}
}
