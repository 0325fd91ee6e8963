// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

/*
Package profile implements the composite talent profile: lazy profile
materialization, multi-source assembly, and completion scoring.

The talent backend stores a profile as a loose aggregate: top-level fields
plus independently optional nested sections (basic info, style profile,
showcase, preferences) and entry collections (education, work experience,
certifications, skills). Sections routinely go missing from the composite
fetch and must be recovered through fallback lookups.

Architecture:

  - FlowManager: Guarantees a profile record exists for the session before
    any dependent sub-resource is attached; lazily creates it via an
    idempotent empty upsert.
  - Assembler: Fetches the composite profile and stitches in a missing
    basic-info section by id-then-email fallback, with in-flight
    deduplication per profile id.
  - Scorer: Pure derivation of the 0-100 completion percentage from five
    section predicates.
  - Sections are modeled as an explicit tri-state (not fetched, confirmed
    absent, present) so downstream code never confuses "we have not looked"
    with "the backend says there is nothing".
*/
package profile

import (
	"encoding/json"

	"github.com/castlinehq/castline-api/pkg/slug"
)

// # Section Tri-State

// SectionState distinguishes the three knowledge states of a profile section.
type SectionState int

const (
	// SectionNotFetched means no lookup for this section has completed yet.
	SectionNotFetched SectionState = iota

	// SectionAbsent means a lookup completed and the backend has no data.
	SectionAbsent

	// SectionPresent means the section was fetched and carries a value.
	SectionPresent
)

var sectionStateNames = map[SectionState]string{
	SectionNotFetched: "not_fetched",
	SectionAbsent:     "absent",
	SectionPresent:    "present",
}

// MarshalJSON renders the state as its string name.
func (s SectionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(sectionStateNames[s])
}

// Section is one optional slice of the composite profile.
type Section struct {
	State SectionState   `json:"state"`
	Value map[string]any `json:"value,omitempty"`
}

// Present wraps a fetched value. A nil or empty map still counts as absent.
func Present(value map[string]any) Section {
	if len(value) == 0 {
		return Absent()
	}
	return Section{State: SectionPresent, Value: value}
}

// Absent marks a section as looked-up-and-missing.
func Absent() Section {
	return Section{State: SectionAbsent}
}

// IsPresent reports whether the section carries a value.
func (s Section) IsPresent() bool {
	return s.State == SectionPresent
}

// Get returns a string field of the section value, or "".
func (s Section) Get(key string) string {
	if !s.IsPresent() {
		return ""
	}
	value, _ := s.Value[key].(string)
	return value
}

// # Composite Profile

// CompositeProfile is the merged view-model the portal renders.
//
// # Invariant
//
// ProfileID is immutable once assigned. Every nested section and collection
// is independently optional: absence is not an error, only not-complete.
type CompositeProfile struct {
	ProfileID string `json:"professionalsProfileId"`

	BasicInfo    Section `json:"basicInfo"`
	StyleProfile Section `json:"styleProfile"`
	Showcase     Section `json:"showcase"`
	Preferences  Section `json:"preferences"`

	Educations      []any `json:"educations"`
	WorkExperiences []any `json:"workExperiences"`
	Certifications  []any `json:"certifications"`
	Skills          []any `json:"professionalSkills"`

	// DisplayHandle is the shareable URL handle derived from the talent's
	// full name. Empty until basic info is recovered.
	DisplayHandle string `json:"displayHandle,omitempty"`

	// CompletionScore is derived on every assembly, never stored.
	CompletionScore int `json:"completionScore"`
}

// FullName returns the talent's display name from the basic-info section.
func (p *CompositeProfile) FullName() string {
	return p.BasicInfo.Get("fullName")
}

// refreshDerived recomputes the fields derived from the assembled sections.
func (p *CompositeProfile) refreshDerived() {
	p.DisplayHandle = slug.From(p.FullName())
	p.CompletionScore = Score(p)
}
