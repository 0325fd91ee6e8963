// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/castlinehq/castline-api/internal/platform/constants"
)

// # Media Family
//
// File retrieval and banner listing. Banners use the paginated
// {content, totalPages, totalElements} page shape rather than the standard
// envelope; [Result.Payload] still exposes the body for the media service
// to unpack.

// DownloadFile streams an authenticated media file from the backend.
//
// Unlike the JSON endpoints this returns the raw response so the gateway can
// proxy the byte stream (and its Content-Type) straight through to the
// browser without buffering images in memory. The caller owns the body.
func (client *Client) DownloadFile(ctx context.Context, token, filePath string) (*http.Response, error) {
	query := url.Values{}
	query.Set("filePath", filePath)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		client.baseURL+"/file/downloadFile/?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	return client.httpClient.Do(request)
}

// ListBanners fetches one page of promotional banners.
func (client *Client) ListBanners(ctx context.Context, token string, page, size int) Result {
	query := url.Values{}
	query.Set("page", itoa(page))
	query.Set("size", itoa(size))
	return client.get(ctx, "/banner/v1/list", token, query)
}
