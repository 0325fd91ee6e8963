// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/castlinehq/castline-api/internal/platform/constants"
	"github.com/castlinehq/castline-api/internal/upstream"
)

// # Composite Profile Assembler

// ProfileFetcher is the upstream surface the assembler depends on.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, token, profileID string) upstream.Result
	GetBasicInfo(ctx context.Context, token, basicInfoID string) upstream.Result
	GetBasicInfoByEmail(ctx context.Context, token, email string) upstream.Result
}

// inflightFetch shares one assembly result between concurrent callers.
type inflightFetch struct {
	done      chan struct{}
	composite *CompositeProfile
	err       error
}

// Assembler fetches a composite profile and stitches in a missing basic-info
// section via fallback lookups.
//
// # Concurrency
//
// Fetches are deduplicated per profile id through an explicit in-flight map:
// a second call arriving while one is pending does not hit the backend, it
// waits for and shares the first call's result.
type Assembler struct {
	backend ProfileFetcher
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[string]*inflightFetch
}

// NewAssembler constructs an [Assembler].
func NewAssembler(backend ProfileFetcher, logger *slog.Logger) *Assembler {
	return &Assembler{
		backend:  backend,
		logger:   logger,
		inFlight: make(map[string]*inflightFetch),
	}
}

/*
Fetch retrieves and assembles the composite profile for a profile id.

Description: Fetches the composite record (success sentinel code 1000), then
recovers a missing basic-info section: first by a basic-info id found at any
of its known nesting locations, then by account email. A 404 on the email
fallback means "no basic info captured yet" and is logged informationally,
never surfaced as a failure. Whatever could not be recovered is marked
confirmed-absent so downstream code can tell it apart from not-yet-fetched.

Parameters:
  - ctx: context.Context
  - token: upstream bearer token
  - profileID: composite profile id
  - email: account email used for the final basic-info fallback

Returns:
  - *CompositeProfile: The assembled view-model with its completion score
  - err: Upstream failure carrying the backend's own message
*/
func (assembler *Assembler) Fetch(ctx context.Context, token, profileID, email string) (*CompositeProfile, error) {

	// Join an in-flight fetch for the same profile id if one exists.
	assembler.mu.Lock()
	if pending, ok := assembler.inFlight[profileID]; ok {
		assembler.mu.Unlock()
		select {
		case <-pending.done:
			return pending.composite, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fetch := &inflightFetch{done: make(chan struct{})}
	assembler.inFlight[profileID] = fetch
	assembler.mu.Unlock()

	fetch.composite, fetch.err = assembler.assemble(ctx, token, profileID, email)

	assembler.mu.Lock()
	delete(assembler.inFlight, profileID)
	assembler.mu.Unlock()
	close(fetch.done)

	return fetch.composite, fetch.err
}

// assemble performs the actual multi-step fetch and merge.
func (assembler *Assembler) assemble(ctx context.Context, token, profileID, email string) (*CompositeProfile, error) {

	// 1. Composite fetch.
	result := assembler.backend.GetProfile(ctx, token, profileID)
	if err := result.SentinelError(constants.UpstreamCodeProfileOK); err != nil {
		return nil, err
	}

	payload, _ := result.Payload().(map[string]any)

	composite := &CompositeProfile{
		ProfileID:       profileID,
		StyleProfile:    Present(asObject(payload["styleProfile"])),
		Showcase:        Present(asObject(payload["showcase"])),
		Preferences:     Present(asObject(payload["preferences"])),
		Educations:      asArray(payload["educations"]),
		WorkExperiences: asArray(payload["workExperiences"]),
		Certifications:  asArray(payload["certifications"]),
		Skills:          asArray(payload["professionalSkills"]),
	}

	// 2. Basic info: keep what the composite carried when it is usable,
	// otherwise run the fallback chain.
	basicInfo := asObject(payload["basicInfo"])
	if usableBasicInfo(basicInfo) {
		composite.BasicInfo = Present(basicInfo)
	} else {
		composite.BasicInfo = assembler.recoverBasicInfo(ctx, token, payload, email)
	}

	composite.refreshDerived()
	return composite, nil
}

// recoverBasicInfo runs the id-then-email fallback chain. It always returns
// a resolved section, never SectionNotFetched.
func (assembler *Assembler) recoverBasicInfo(ctx context.Context, token string, payload map[string]any, email string) Section {

	// The basic-info id hides at different nesting locations depending on
	// which backend module produced the composite.
	if basicInfoID := findBasicInfoID(payload); basicInfoID != "" {
		result := assembler.backend.GetBasicInfo(ctx, token, basicInfoID)
		if result.Success && result.CodeIs(constants.UpstreamCodeProfileOK) {
			if recovered := asObject(result.Payload()); usableBasicInfo(recovered) {
				return Present(recovered)
			}
		}
	}

	if email == "" {
		return Absent()
	}

	result := assembler.backend.GetBasicInfoByEmail(ctx, token, email)
	switch {
	case result.Success && result.CodeIs(constants.UpstreamCodeProfileOK):
		if recovered := asObject(result.Payload()); usableBasicInfo(recovered) {
			return Present(recovered)
		}
	case result.Status == http.StatusNotFound:
		// Not an error: the account simply has no basic info yet.
		assembler.logger.InfoContext(ctx, "basic info not captured for account",
			slog.String("email", email),
		)
	default:
		assembler.logger.WarnContext(ctx, "basic info email fallback failed",
			slog.Int("status", result.Status),
			slog.String("error", result.ErrorMessage()),
		)
	}

	return Absent()
}

// findBasicInfoID checks the three known nesting locations for the id.
func findBasicInfoID(payload map[string]any) string {
	if id := stringOrNumber(payload["basicInfoId"]); id != "" {
		return id
	}
	if nested := asObject(payload["basicInfo"]); nested != nil {
		if id := stringOrNumber(nested["id"]); id != "" {
			return id
		}
	}
	if dto := asObject(payload["professionalsDto"]); dto != nil {
		if id := stringOrNumber(dto["basicInfoId"]); id != "" {
			return id
		}
	}
	return ""
}

// usableBasicInfo requires at least a fullName; anything less triggers the
// fallback chain.
func usableBasicInfo(value map[string]any) bool {
	if len(value) == 0 {
		return false
	}
	name, _ := value["fullName"].(string)
	return name != ""
}

// # Payload Coercion

func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}

func stringOrNumber(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		// Ids serialized as JSON numbers are whole; render without a fraction.
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}
