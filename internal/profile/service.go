// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"

	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/session"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// # Contracts & Types

// Backend is the full upstream surface the profile service depends on.
type Backend interface {
	ProfileCreator
	ProfileFetcher
	SaveOrUpdateProfile(ctx context.Context, token string, payload map[string]any) upstream.Result
	LinkStyleProfile(ctx context.Context, token, profileID string, payload map[string]any) upstream.Result
	LinkShowcase(ctx context.Context, token, profileID string, payload map[string]any) upstream.Result
	LinkPreferences(ctx context.Context, token, profileID string, payload map[string]any) upstream.Result
}

// Service orchestrates the profile flow for HTTP handlers: ensure the
// profile exists, assemble the composite, attach sections.
type Service struct {
	backend   Backend
	flow      *FlowManager
	assembler *Assembler
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(backend Backend, flow *FlowManager, assembler *Assembler) *Service {
	return &Service{
		backend:   backend,
		flow:      flow,
		assembler: assembler,
	}
}

/*
Overview resolves the session's profile and returns the assembled composite.

Description: Lazily creates the profile record on first access, then runs
the full assembly including basic-info recovery and completion scoring.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session

Returns:
  - *CompositeProfile: Assembled view-model
  - err: Flow or upstream failures
*/
func (service *Service) Overview(ctx context.Context, sess *session.Session) (*CompositeProfile, error) {
	profileID, err := service.flow.EnsureProfileID(ctx, sess)
	if err != nil {
		return nil, err
	}
	return service.assembler.Fetch(ctx, sess.UpstreamToken, profileID, sess.Email)
}

// Save persists top-level profile fields through the upstream upsert.
func (service *Service) Save(ctx context.Context, sess *session.Session, payload map[string]any) (any, error) {
	if _, err := service.flow.EnsureProfileID(ctx, sess); err != nil {
		return nil, err
	}

	result := service.backend.SaveOrUpdateProfile(ctx, sess.UpstreamToken, payload)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}

// SectionKind names an attachable profile section.
type SectionKind string

const (
	SectionStyleProfile SectionKind = "styleProfile"
	SectionShowcase     SectionKind = "showcase"
	SectionPreferences  SectionKind = "preferences"
)

/*
AttachSection links one optional section onto the session's profile.

Parameters:
  - ctx: context.Context
  - sess: the caller's active portal session
  - kind: which section the payload belongs to
  - payload: section fields, forwarded verbatim

Returns:
  - any: The backend's updated-section payload
  - err: Flow or upstream failures
*/
func (service *Service) AttachSection(ctx context.Context, sess *session.Session, kind SectionKind, payload map[string]any) (any, error) {
	profileID, err := service.flow.EnsureProfileID(ctx, sess)
	if err != nil {
		return nil, err
	}

	var result upstream.Result
	switch kind {
	case SectionStyleProfile:
		result = service.backend.LinkStyleProfile(ctx, sess.UpstreamToken, profileID, payload)
	case SectionShowcase:
		result = service.backend.LinkShowcase(ctx, sess.UpstreamToken, profileID, payload)
	case SectionPreferences:
		result = service.backend.LinkPreferences(ctx, sess.UpstreamToken, profileID, payload)
	}

	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}
	return result.Payload(), nil
}
