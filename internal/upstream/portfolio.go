// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"context"
	"net/url"
)

// # Portfolio Entry Families
//
// Covers the per-entry collections hanging off a profile: education, work
// experience, certifications, and professional skills. All four expose the
// same verb set (saveOrUpdate / getByProfile / delete) under their own
// resource prefix.
//
// # Success Sentinel
//
// These endpoints belong to the profile backend module and use the
// `code: 1000` sentinel.

// EntryResource names an upstream portfolio collection.
type EntryResource string

const (
	ResourceEducation      EntryResource = "education"
	ResourceWorkExperience EntryResource = "workExperience"
	ResourceCertification  EntryResource = "certification"
	ResourceSkill          EntryResource = "professionalSkills"
)

// SaveEntry creates or updates one portfolio entry. Entries without a server
// id are created; the response carries the server-assigned id for the
// draft-tracking layer to adopt.
func (client *Client) SaveEntry(ctx context.Context, token string, resource EntryResource, payload map[string]any) Result {
	return client.post(ctx, "/"+string(resource)+"/v1/saveOrUpdate", token, payload)
}

// ListEntries fetches every entry of one collection for a profile.
func (client *Client) ListEntries(ctx context.Context, token string, resource EntryResource, profileID string) Result {
	return client.get(ctx, "/"+string(resource)+"/v1/getByProfile/"+url.PathEscape(profileID), token, nil)
}

// DeleteEntry removes one entry by its server-assigned id.
func (client *Client) DeleteEntry(ctx context.Context, token string, resource EntryResource, entryID string) Result {
	return client.del(ctx, "/"+string(resource)+"/v1/delete/"+url.PathEscape(entryID), token)
}

// # Lookup Lists

// ListQualifications fetches the qualification reference list used by the
// education form.
func (client *Client) ListQualifications(ctx context.Context, token string) Result {
	return client.get(ctx, "/qualification/v1/list", token, nil)
}

// ListSkills fetches the skills reference list, optionally filtered to a set
// of codes.
func (client *Client) ListSkills(ctx context.Context, token string, codes []string) Result {
	var query url.Values
	if len(codes) > 0 {
		query = url.Values{}
		for _, code := range codes {
			query.Add("code", code)
		}
	}
	return client.get(ctx, "/skills/v1/list", token, query)
}
