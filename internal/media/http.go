// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package media proxies authenticated file retrieval and banner listings.

The backend serves uploaded showcase files only to bearer-authenticated
requests, but the browser loads media through plain <img>/<video> tags that
cannot attach an Authorization header. This handler bridges the two: the
portal session authenticates the request, the gateway replays it upstream
with the session's bearer token, and the file body streams straight through
without buffering.
*/
package media

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/middleware"
	requestutil "github.com/castlinehq/castline-api/internal/platform/request"
	"github.com/castlinehq/castline-api/internal/platform/respond"
	"github.com/castlinehq/castline-api/internal/profile"
	"github.com/castlinehq/castline-api/internal/upstream"
	"github.com/castlinehq/castline-api/pkg/convert"
	"github.com/castlinehq/castline-api/pkg/pagination"
)

// Backend is the upstream surface the media handler depends on.
type Backend interface {
	DownloadFile(ctx context.Context, token, filePath string) (*http.Response, error)
	ListBanners(ctx context.Context, token string, page, size int) upstream.Result
}

// Handler implements media HTTP endpoints.
type Handler struct {
	backend  Backend
	sessions profile.SessionResolver
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(backend Backend, sessions profile.SessionResolver) *Handler {
	return &Handler{backend: backend, sessions: sessions}
}

// Routes returns a [chi.Router] configured with media routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuth)

	router.Get("/download", handler.download)
	router.Get("/banners", handler.banners)

	return router
}

/*
Download streams an upstream file through the gateway.

GET /api/v1/media/download?filePath=...&inline=true

Description: Replays the request upstream with the session's bearer token and
streams the body back without buffering. The optional inline flag switches
the disposition between inline rendering and attachment download.

Response:
  - 200: Raw file body with upstream content type
  - 404: File not stored upstream
  - 502: Backend unreachable
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
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

	filePath := request.URL.Query().Get("filePath")
	if filePath == "" {
		respond.Error(writer, request, apperr.ValidationError("filePath query parameter is required"))
		return
	}

	upstreamResponse, err := handler.backend.DownloadFile(request.Context(), sess.UpstreamToken, filePath)
	if err != nil {
		respond.Error(writer, request, apperr.UpstreamUnreachable(err))
		return
	}
	defer upstreamResponse.Body.Close()

	if upstreamResponse.StatusCode == http.StatusNotFound {
		respond.Error(writer, request, apperr.NotFound("File"))
		return
	}
	if upstreamResponse.StatusCode < 200 || upstreamResponse.StatusCode > 299 {
		respond.Error(writer, request, apperr.Upstream("File download failed upstream"))
		return
	}

	if contentType := upstreamResponse.Header.Get("Content-Type"); contentType != "" {
		writer.Header().Set("Content-Type", contentType)
	}
	if length := upstreamResponse.Header.Get("Content-Length"); length != "" {
		writer.Header().Set("Content-Length", length)
	}
	if convert.ToBool(request.URL.Query().Get("inline")) {
		writer.Header().Set("Content-Disposition", "inline")
	} else {
		writer.Header().Set("Content-Disposition", "attachment")
	}

	writer.WriteHeader(http.StatusOK)
	// Stream; a copy failure mid-body cannot be reported as JSON anymore.
	_, _ = io.Copy(writer, upstreamResponse.Body)
}

/*
Banners returns the paginated promotional banner list.

GET /api/v1/media/banners?page=1&limit=20

Response:
  - 200: Banner page with pagination meta
  - 502: Upstream failure envelope
*/
func (handler *Handler) banners(writer http.ResponseWriter, request *http.Request) {
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

	params := pagination.FromRequest(request)

	result := handler.backend.ListBanners(request.Context(), sess.UpstreamToken, params.Page, params.Limit)
	if err := result.AsError(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The banner endpoint returns a Spring-style page: content plus totals.
	page, _ := result.Payload().(map[string]any)
	content, _ := page["content"].([]any)
	total := int(floatOr(page["totalElements"], float64(len(content))))

	respond.Paginated(writer, content, pagination.NewMeta(params.Page, params.Limit, total))
}

func floatOr(v any, fallback float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}
