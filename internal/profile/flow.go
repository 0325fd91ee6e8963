// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// # Profile Flow Manager

// ProfileCreator is the upstream call the flow manager depends on.
type ProfileCreator interface {
	CreateOrUpdateProfile(ctx context.Context, token, professionalsID string, payload map[string]any) upstream.Result
}

// FlowManager guarantees a profile record exists for a session before any
// dependent sub-resource (education, skills, showcase) is attached.
//
// # Concurrency
//
// Creation attempts are deduplicated per session through an explicit map, so
// two requests racing on the same session cannot both fire the upsert. A
// failed attempt clears its entry to permit retry. There is no cross-node
// coordination; the backend's idempotent upsert semantics cover that case.
type FlowManager struct {
	backend  ProfileCreator
	sessions session.Store

	mu       sync.Mutex
	creating map[string]struct{}
}

// NewFlowManager constructs a [FlowManager].
func NewFlowManager(backend ProfileCreator, sessions session.Store) *FlowManager {
	return &FlowManager{
		backend:  backend,
		sessions: sessions,
		creating: make(map[string]struct{}),
	}
}

/*
EnsureProfileID resolves the session's profile id, lazily creating the
profile record on first need.

Description: Follows the portal's profile bootstrap order:

 1. A profile id already on the session wins.
 2. Otherwise the professionals id drives an idempotent empty upsert, and
    the resulting profile id is persisted back onto the session.
 3. A session with neither id cannot proceed; the caller is told to finish
    the basic-info step first.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session

Returns:
  - string: The resolved profile id
  - err: Unprocessable when the prior step is missing, Conflict while a
    concurrent creation is running, or upstream failures
*/
func (manager *FlowManager) EnsureProfileID(ctx context.Context, sess *session.Session) (string, error) {

	if sess.ProfileID != "" {
		return sess.ProfileID, nil
	}

	if sess.ProfessionalsID == "" {
		return "", apperr.Unprocessable("Complete the basic-info step before adding profile details")
	}

	// Deduplicate creation per session.
	manager.mu.Lock()
	if _, busy := manager.creating[sess.ID]; busy {
		manager.mu.Unlock()
		return "", apperr.Conflict("Profile setup is already in progress")
	}
	manager.creating[sess.ID] = struct{}{}
	manager.mu.Unlock()

	profileID, err := manager.create(ctx, sess)

	// The guard always clears; on failure this is what permits a retry.
	manager.mu.Lock()
	delete(manager.creating, sess.ID)
	manager.mu.Unlock()

	return profileID, err
}

// create fires the idempotent empty upsert and persists the resulting id.
func (manager *FlowManager) create(ctx context.Context, sess *session.Session) (string, error) {

	result := manager.backend.CreateOrUpdateProfile(ctx, sess.UpstreamToken, sess.ProfessionalsID, nil)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return "", err
	}

	profileID := extractProfileID(result)
	if profileID == "" {
		return "", apperr.Upstream("Profile creation response did not include a profile id")
	}

	// Persist before mutating the in-memory session so a storage conflict
	// (another node won the race with a different id) is never masked.
	if err := manager.sessions.SetProfileID(ctx, sess.ID, profileID); err != nil {
		return "", fmt.Errorf("profile_flow_persist_failed: %w", err)
	}
	sess.ProfileID = profileID

	return profileID, nil
}

// extractProfileID digs the new profile id out of the upsert payload.
func extractProfileID(result upstream.Result) string {
	payload, ok := result.Payload().(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"professionalsProfileId", "profileId", "id"} {
		switch value := payload[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case float64:
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}
