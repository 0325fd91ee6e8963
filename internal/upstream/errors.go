// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"errors"

	"github.com/castlinehq/castline-api/internal/platform/apperr"
)

/*
AsError converts a failed [Result] into a client-safe [apperr.AppError].

Description: Connection-level failures map to a 502 with a fixed message so
the portal can render its "backend unreachable" state; every other failure
carries the extracted upstream error message.

Returns:
  - error: nil when the result is a success
*/
func (r Result) AsError() error {
	if r.Success {
		return nil
	}
	if r.ConnectionRefused() {
		return apperr.UpstreamUnreachable(errors.New(r.ErrorMessage()))
	}
	return apperr.Upstream(r.ErrorMessage())
}

// SentinelError is [AsError] plus the body-level success check.
//
// Endpoint families report success inside the body (`code: 200` for the
// register family, `code: 1000` for the profile family) even on HTTP 200, so
// callers pass their family's sentinel here.
func (r Result) SentinelError(want int) error {
	if err := r.AsError(); err != nil {
		return err
	}
	if !r.CodeIs(want) {
		return apperr.Upstream(r.ErrorMessage())
	}
	return nil
}
