// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"context"
	"net/url"
	"strconv"
)

// itoa keeps query building terse in the family files.
func itoa(n int) string { return strconv.Itoa(n) }

// # Professionals Profile Family
//
// Covers the composite profile endpoints under /professionalsProfile/v1 and
// the basic-info lookups under /basicInfo/v1.
//
// # Success Sentinel
//
// This family reports success as body `code: 1000` — NOT the 200 used by the
// agency-register family. The inconsistency is an upstream contract artifact
// and is preserved per endpoint; callers must use [Result.CodeIs] with
// [constants.UpstreamCodeProfileOK].

// CreateOrUpdateProfile performs the idempotent profile upsert keyed by
// professionals id. An empty payload is valid and is how the portal lazily
// materializes a profile record before any sub-resource is attached.
func (client *Client) CreateOrUpdateProfile(ctx context.Context, token, professionalsID string, payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}
	return client.post(ctx, "/professionalsProfile/v1/create/"+url.PathEscape(professionalsID), token, payload)
}

// GetProfile fetches the composite profile by its profile id.
func (client *Client) GetProfile(ctx context.Context, token, profileID string) Result {
	return client.get(ctx, "/professionalsProfile/v1/get/"+url.PathEscape(profileID), token, nil)
}

// SaveOrUpdateProfile persists top-level profile fields.
func (client *Client) SaveOrUpdateProfile(ctx context.Context, token string, payload map[string]any) Result {
	return client.post(ctx, "/professionalsProfile/v1/saveOrUpdate", token, payload)
}

// LinkStyleProfile attaches a style-profile section to the profile.
func (client *Client) LinkStyleProfile(ctx context.Context, token, profileID string, payload map[string]any) Result {
	return client.post(ctx, "/professionalsProfile/v1/linkStyleProfile/"+url.PathEscape(profileID), token, payload)
}

// LinkShowcase attaches a showcase section (files, social presence, languages).
func (client *Client) LinkShowcase(ctx context.Context, token, profileID string, payload map[string]any) Result {
	return client.post(ctx, "/professionalsProfile/v1/linkShowcase/"+url.PathEscape(profileID), token, payload)
}

// LinkPreferences attaches the work-preference section (attire and job types).
func (client *Client) LinkPreferences(ctx context.Context, token, profileID string, payload map[string]any) Result {
	return client.post(ctx, "/professionalsProfile/v1/linkPreferences/"+url.PathEscape(profileID), token, payload)
}

// # Basic Info Lookups

// GetBasicInfo fetches a basic-info record by its id.
func (client *Client) GetBasicInfo(ctx context.Context, token, basicInfoID string) Result {
	return client.get(ctx, "/basicInfo/v1/get/"+url.PathEscape(basicInfoID), token, nil)
}

// GetBasicInfoByEmail fetches a basic-info record by account email.
//
// A 404 from this endpoint means "no basic info captured yet" and is treated
// by the assembler as informational, not as a hard failure.
func (client *Client) GetBasicInfoByEmail(ctx context.Context, token, email string) Result {
	query := url.Values{}
	query.Set("email", email)
	return client.get(ctx, "/basicInfo/v1/getByEmail", token, query)
}
