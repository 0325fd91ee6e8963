// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package portfolio

import (
	"context"
	"fmt"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
	"github.com/castlinehq/castline-api/pkg/slice"
	"github.com/castlinehq/castline-api/pkg/uuidv7"
)

// # Contracts & Types

// Backend is the upstream surface the portfolio service depends on.
type Backend interface {
	SaveEntry(ctx context.Context, token string, resource upstream.EntryResource, payload map[string]any) upstream.Result
	ListEntries(ctx context.Context, token string, resource upstream.EntryResource, profileID string) upstream.Result
	DeleteEntry(ctx context.Context, token string, resource upstream.EntryResource, entryID string) upstream.Result
	ListQualifications(ctx context.Context, token string) upstream.Result
	ListSkills(ctx context.Context, token string, codes []string) upstream.Result
}

// ProfileResolver guarantees a profile record exists before entries attach.
type ProfileResolver interface {
	EnsureProfileID(ctx context.Context, sess *session.Session) (string, error)
}

// Service implements the entry lifecycle use cases.
type Service struct {
	backend  Backend
	status   StatusStore
	profiles ProfileResolver
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(backend Backend, status StatusStore, profiles ProfileResolver) *Service {
	return &Service{
		backend:  backend,
		status:   status,
		profiles: profiles,
	}
}

// Entry is the gateway's view of one portfolio entry.
type Entry struct {
	ID        string         `json:"id"`
	Submitted bool           `json:"submitted"`
	Fields    map[string]any `json:"fields"`
}

// # Draft Lifecycle

/*
NewDraft mints a temporary id for an entry the user has started editing.

Description: The id is a time-sortable UUID registered in the draft map so a
later save can tell it apart from a server-assigned id. Drafts carry no
fields server-side; the client keeps the in-progress values.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session
  - resource: entry collection

Returns:
  - *Entry: Skeleton entry with the temporary id, unsubmitted
  - err: Flow or storage failures
*/
func (service *Service) NewDraft(ctx context.Context, sess *session.Session, resource upstream.EntryResource) (*Entry, error) {
	profileID, err := service.profiles.EnsureProfileID(ctx, sess)
	if err != nil {
		return nil, err
	}

	tempID := uuidv7.New()
	if err := service.status.RegisterDraft(ctx, profileID, resource, tempID); err != nil {
		return nil, fmt.Errorf("portfolio_service_draft_register_failed: %w", err)
	}

	return &Entry{ID: tempID, Submitted: false, Fields: map[string]any{}}, nil
}

/*
SaveEntry creates or updates one portfolio entry upstream.

Description: Implements the id-adoption rule: a temporary draft id is never
sent upstream. On first save the id field is stripped so the backend assigns
one; the returned server id is then adopted for the draft, and all later
updates and deletes with the stale temporary id are translated to it. An
update of an already-submitted entry clears its submitted mark first, so a
failed save leaves the entry visibly unsubmitted until retried.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session
  - resource: entry collection
  - payload: entry fields; "id" may be a temp id, a server id, or absent

Returns:
  - *Entry: Saved entry with its server id, marked submitted
  - err: Flow, upstream, or storage failures
*/
func (service *Service) SaveEntry(ctx context.Context, sess *session.Session, resource upstream.EntryResource, payload map[string]any) (*Entry, error) {
	profileID, err := service.profiles.EnsureProfileID(ctx, sess)
	if err != nil {
		return nil, err
	}

	clientID, _ := payload["id"].(string)
	tempID := ""

	if clientID != "" {
		serverID, isDraft, err := service.status.ResolveDraft(ctx, profileID, resource, clientID)
		if err != nil {
			return nil, fmt.Errorf("portfolio_service_draft_lookup_failed: %w", err)
		}
		switch {
		case isDraft && serverID != "":
			// Stale temp id from the client: translate, never forward.
			tempID = clientID
			payload["id"] = serverID
			clientID = serverID
		case isDraft:
			// First save of a draft: the backend assigns the real id.
			tempID = clientID
			delete(payload, "id")
			clientID = ""
		}
	}

	// An edit of a submitted entry is unsubmitted until the save lands.
	if clientID != "" {
		if err := service.status.ClearSubmitted(ctx, profileID, resource, clientID); err != nil {
			return nil, err
		}
	}

	payload["professionalsProfileId"] = profileID

	result := service.backend.SaveEntry(ctx, sess.UpstreamToken, resource, payload)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}

	saved, _ := result.Payload().(map[string]any)
	serverID := entryID(saved)
	if serverID == "" {
		serverID = clientID
	}
	if serverID == "" {
		return nil, apperr.Upstream("Save response did not include an entry id")
	}

	// Adopt the server id for the draft so stale temp ids keep resolving.
	if tempID != "" {
		if err := service.status.AdoptDraft(ctx, profileID, resource, tempID, serverID); err != nil {
			return nil, err
		}
	}
	if err := service.status.MarkSubmitted(ctx, profileID, resource, serverID); err != nil {
		return nil, err
	}

	return &Entry{ID: serverID, Submitted: true, Fields: saved}, nil
}

/*
ListEntries returns a profile's entries annotated with submission state.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session
  - resource: entry collection

Returns:
  - []Entry: Entries in backend order
  - err: Flow or upstream failures
*/
func (service *Service) ListEntries(ctx context.Context, sess *session.Session, resource upstream.EntryResource) ([]Entry, error) {
	profileID, err := service.profiles.EnsureProfileID(ctx, sess)
	if err != nil {
		return nil, err
	}

	result := service.backend.ListEntries(ctx, sess.UpstreamToken, resource, profileID)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}

	submitted, err := service.status.SubmittedSet(ctx, profileID, resource)
	if err != nil {
		return nil, err
	}

	raw, _ := result.Payload().([]any)
	return slice.Map(raw, func(item any) Entry {
		fields, _ := item.(map[string]any)
		id := entryID(fields)
		return Entry{
			ID:        id,
			Submitted: submitted[id],
			Fields:    fields,
		}
	}), nil
}

/*
DeleteEntry removes one entry, translating a stale temporary id first.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session
  - resource: entry collection
  - id: temp or server entry id

Returns:
  - err: Flow, upstream, or storage failures
*/
func (service *Service) DeleteEntry(ctx context.Context, sess *session.Session, resource upstream.EntryResource, id string) error {
	profileID, err := service.profiles.EnsureProfileID(ctx, sess)
	if err != nil {
		return err
	}

	serverID, isDraft, err := service.status.ResolveDraft(ctx, profileID, resource, id)
	if err != nil {
		return fmt.Errorf("portfolio_service_draft_lookup_failed: %w", err)
	}

	if isDraft && serverID == "" {
		// Never saved: nothing exists upstream, just forget the draft.
		return service.status.DropDraft(ctx, profileID, resource, id)
	}

	target := id
	if isDraft {
		target = serverID
	}

	result := service.backend.DeleteEntry(ctx, sess.UpstreamToken, resource, target)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return err
	}

	if err := service.status.ClearSubmitted(ctx, profileID, resource, target); err != nil {
		return err
	}
	if isDraft {
		return service.status.DropDraft(ctx, profileID, resource, id)
	}
	return nil
}

// # Lookup Lists

// Qualifications returns the backend's qualification reference list.
func (service *Service) Qualifications(ctx context.Context, sess *session.Session) (any, error) {
	result := service.backend.ListQualifications(ctx, sess.UpstreamToken)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}

// Skills returns the backend's skill reference list, optionally filtered.
func (service *Service) Skills(ctx context.Context, sess *session.Session, codes []string) (any, error) {
	result := service.backend.ListSkills(ctx, sess.UpstreamToken, codes)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}

// entryID digs the id out of an entry payload, tolerating numeric ids.
func entryID(fields map[string]any) string {
	switch value := fields["id"].(type) {
	case string:
		return value
	case float64:
		return fmt.Sprintf("%.0f", value)
	}
	return ""
}
