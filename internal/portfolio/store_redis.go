// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package portfolio implements the lifecycle of profile entry collections:
education, work experience, certifications, and professional skills.

An entry starts life as a draft with a client-visible temporary id minted by
the gateway. The first successful save replaces it with the server-assigned
id, and every later update or delete must use the server id; the gateway
keeps the temp-to-server mapping so a stale temporary id from the client is
translated instead of leaking upstream. "Submitted" is tracked as set
membership separate from the entry's own fields, so an edit moves the entry
back to unsubmitted until it is saved again.

Architecture:

  - Service: Orchestrates draft minting, id adoption, and upstream calls.
  - StatusStore: Redis-backed submitted-set membership plus the
    temp-to-server id mapping, keyed per profile and resource.
*/
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// StatusStore tracks entry submission state and draft id adoption.
type StatusStore interface {
	// MarkSubmitted records an entry id in the profile's submitted set.
	MarkSubmitted(ctx context.Context, profileID string, resource upstream.EntryResource, entryID string) error

	// ClearSubmitted removes an entry id from the submitted set.
	ClearSubmitted(ctx context.Context, profileID string, resource upstream.EntryResource, entryID string) error

	// SubmittedSet returns all submitted entry ids for a profile resource.
	SubmittedSet(ctx context.Context, profileID string, resource upstream.EntryResource) (map[string]bool, error)

	// RegisterDraft records a freshly minted temporary id with no server id.
	RegisterDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) error

	// AdoptDraft records the server id assigned to a temporary draft id.
	AdoptDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID, serverID string) error

	// ResolveDraft looks up a temporary id. isDraft is false when the id was
	// never registered as a draft (i.e. it is a server id or unknown);
	// serverID is "" while the draft has not been saved yet.
	ResolveDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) (serverID string, isDraft bool, err error)

	// DropDraft forgets a temporary id mapping.
	DropDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) error
}

// RedisStatusStore implements [StatusStore] on Redis sets and hashes.
type RedisStatusStore struct {
	client *redis.Client
}

// NewStatusStore creates a new Redis-backed [StatusStore].
func NewStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

var _ StatusStore = (*RedisStatusStore)(nil)

// submittedKey builds the submitted-set key for one profile resource.
func submittedKey(profileID string, resource upstream.EntryResource) string {
	return fmt.Sprintf("%s%s:%s", constants.RedisPrefixSubmitted, profileID, resource)
}

// draftKey builds the draft-mapping hash key for one profile resource.
func draftKey(profileID string, resource upstream.EntryResource) string {
	return fmt.Sprintf("%s%s:%s", constants.RedisPrefixDraft, profileID, resource)
}

/*
MarkSubmitted records an entry id in the profile's submitted set.

Parameters:
  - ctx: context.Context
  - profileID: owning profile
  - resource: entry collection
  - entryID: server-assigned entry id

Returns:
  - error: Execution errors
*/
func (store *RedisStatusStore) MarkSubmitted(ctx context.Context, profileID string, resource upstream.EntryResource, entryID string) error {
	if err := store.client.SAdd(ctx, submittedKey(profileID, resource), entryID).Err(); err != nil {
		return fmt.Errorf("redis_submitted_add_failed: %w", err)
	}
	return nil
}

// ClearSubmitted removes an entry id from the submitted set.
func (store *RedisStatusStore) ClearSubmitted(ctx context.Context, profileID string, resource upstream.EntryResource, entryID string) error {
	if err := store.client.SRem(ctx, submittedKey(profileID, resource), entryID).Err(); err != nil {
		return fmt.Errorf("redis_submitted_remove_failed: %w", err)
	}
	return nil
}

// SubmittedSet returns all submitted entry ids for a profile resource.
func (store *RedisStatusStore) SubmittedSet(ctx context.Context, profileID string, resource upstream.EntryResource) (map[string]bool, error) {
	members, err := store.client.SMembers(ctx, submittedKey(profileID, resource)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("redis_submitted_members_failed: %w", err)
	}

	set := make(map[string]bool, len(members))
	for _, member := range members {
		set[member] = true
	}
	return set, nil
}

// RegisterDraft records a freshly minted temporary id with no server id.
func (store *RedisStatusStore) RegisterDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) error {
	if err := store.client.HSet(ctx, draftKey(profileID, resource), tempID, "").Err(); err != nil {
		return fmt.Errorf("redis_draft_register_failed: %w", err)
	}
	return nil
}

/*
AdoptDraft records the server id assigned to a temporary draft id.

Parameters:
  - ctx: context.Context
  - profileID: owning profile
  - resource: entry collection
  - tempID: gateway-minted temporary id
  - serverID: id assigned by the backend on first save

Returns:
  - error: Execution errors
*/
func (store *RedisStatusStore) AdoptDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID, serverID string) error {
	if err := store.client.HSet(ctx, draftKey(profileID, resource), tempID, serverID).Err(); err != nil {
		return fmt.Errorf("redis_draft_adopt_failed: %w", err)
	}
	return nil
}

// ResolveDraft looks up a temporary id in the draft-mapping hash.
func (store *RedisStatusStore) ResolveDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) (string, bool, error) {
	serverID, err := store.client.HGet(ctx, draftKey(profileID, resource), tempID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Not a draft id at all.
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_draft_resolve_failed: %w", err)
	}
	return serverID, true, nil
}

// DropDraft forgets a temporary id mapping.
func (store *RedisStatusStore) DropDraft(ctx context.Context, profileID string, resource upstream.EntryResource, tempID string) error {
	if err := store.client.HDel(ctx, draftKey(profileID, resource), tempID).Err(); err != nil {
		return fmt.Errorf("redis_draft_drop_failed: %w", err)
	}
	return nil
}
