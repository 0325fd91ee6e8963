// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package portfolio

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/middleware"
	requestutil "github.com/castlinehq/castline-api/internal/platform/request"
	"github.com/castlinehq/castline-api/internal/platform/respond"
	"github.com/castlinehq/castline-api/internal/platform/sec"
	"github.com/castlinehq/castline-api/internal/platform/validate"
	"github.com/castlinehq/castline-api/internal/profile"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
	"github.com/castlinehq/castline-api/pkg/query"
)

// collectionNames maps URL segments to upstream entry resources.
var collectionNames = map[string]upstream.EntryResource{
	"education":       upstream.ResourceEducation,
	"work-experience": upstream.ResourceWorkExperience,
	"certifications":  upstream.ResourceCertification,
	"skills":          upstream.ResourceSkill,
}

// Handler implements portfolio-entry HTTP endpoints.
type Handler struct {
	portfolioService *Service
	sessions         profile.SessionResolver
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, sessions profile.SessionResolver) *Handler {
	return &Handler{portfolioService: service, sessions: sessions}
}

// Routes returns a [chi.Router] configured with portfolio routes.
//
// # Endpoints
//   - GET    /qualifications          : Qualification reference list.
//   - GET    /lookup/skills           : Skill reference list.
//   - POST   /{collection}/draft      : Mint a draft entry id.
//   - GET    /{collection}            : List entries with submission state.
//   - POST   /{collection}            : Create or update an entry.
//   - DELETE /{collection}/{entryID}  : Delete an entry.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)
	router.Use(middleware.RequireAccountType(sec.AccountProfessional))

	router.Get("/qualifications", handler.qualifications)
	router.Get("/lookup/skills", handler.skills)

	router.Route("/{collection}", func(r chi.Router) {
		r.Post("/draft", handler.newDraft)
		r.Get("/", handler.list)
		r.Post("/", handler.save)
		r.Delete("/{entryID}", handler.delete)
	})

	return router
}

// requestContext resolves the session and collection for an entry endpoint.
func (handler *Handler) requestContext(request *http.Request) (*session.Session, upstream.EntryResource, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return nil, "", err
	}

	sess, err := handler.sessions.CurrentSession(request.Context(), claims.SessionID)
	if err != nil {
		return nil, "", err
	}

	name := chi.URLParam(request, "collection")
	resource, ok := collectionNames[name]
	if !ok {
		return nil, "", apperr.NotFound("Portfolio collection")
	}
	return sess, resource, nil
}

/*
NewDraft mints a temporary id for an in-progress entry.

POST /api/v1/portfolio/{collection}/draft

Response:
  - 201: Entry: Skeleton with the temporary id, unsubmitted
  - 422: Basic-info step not completed yet
*/
func (handler *Handler) newDraft(writer http.ResponseWriter, request *http.Request) {
	sess, resource, err := handler.requestContext(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	draft, err := handler.portfolioService.NewDraft(request.Context(), sess, resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, draft)
}

/*
List returns the profile's entries annotated with submission state.

GET /api/v1/portfolio/{collection}

Response:
  - 200: []Entry
  - 502: Upstream failure envelope
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	sess, resource, err := handler.requestContext(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := handler.portfolioService.ListEntries(request.Context(), sess, resource)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}

/*
Save creates or updates one entry.

POST /api/v1/portfolio/{collection}

Description: The body's "id" may be a draft id (first save strips it and
adopts the server-assigned id), a stale draft id (translated), a server id
(ordinary update), or absent.

Request:
  - Body: entry fields as a JSON object

Response:
  - 200: Entry: Saved entry with its server id, marked submitted
  - 400: ErrInvalidJSON
  - 502: Upstream failure envelope
*/
func (handler *Handler) save(writer http.ResponseWriter, request *http.Request) {
	sess, resource, err := handler.requestContext(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload map[string]any
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	entry, err := handler.portfolioService.SaveEntry(request.Context(), sess, resource, payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}

/*
Delete removes one entry.

DELETE /api/v1/portfolio/{collection}/{entryID}

Response:
  - 204: No Content
  - 502: Upstream failure envelope
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	sess, resource, err := handler.requestContext(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entryID := chi.URLParam(request, "entryID")
	if entryID == "" {
		respond.Error(writer, request, apperr.ValidationError("entryID is required"))
		return
	}

	if err := handler.portfolioService.DeleteEntry(request.Context(), sess, resource, entryID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Qualifications returns the qualification reference list.

GET /api/v1/portfolio/qualifications
*/
func (handler *Handler) qualifications(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sess, err := handler.sessions.CurrentSession(request.Context(), claims.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	list, err := handler.portfolioService.Qualifications(request.Context(), sess)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, list)
}

/*
Skills returns the skill reference list, optionally filtered by codes.

GET /api/v1/portfolio/lookup/skills?codes=a,b,c
*/
func (handler *Handler) skills(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sess, err := handler.sessions.CurrentSession(request.Context(), claims.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	codes := query.StringSlice(request.URL.Query().Get("codes"))

	list, err := handler.portfolioService.Skills(request.Context(), sess, codes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, list)
}
