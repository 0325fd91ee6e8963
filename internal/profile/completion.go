// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

// # Completion Scoring
//
// Five independent section predicates, each worth exactly 20 points with no
// partial credit inside a section. The result is therefore always one of
// {0, 20, 40, 60, 80, 100}.

const sectionWeight = 20

// Candidate keys per flag group. The backend's preference payload has gone
// through several namings; checking all known spellings keeps the scorer
// stable across backend deployments.
var (
	attireKeys  = []string{"attire", "attires", "attireFlags", "preferredAttires"}
	jobTypeKeys = []string{"jobType", "jobTypes", "jobTypeFlags", "preferredJobTypes"}

	showcaseKeys = []string{"files", "socialPresence", "socialPresences", "languages"}
	styleKeys    = []string{"height", "weight", "bodyType"}
)

/*
Score computes the profile completion percentage.

Description: Pure function with no I/O; calling it twice on the same
composite yields the same integer regardless of section evaluation order.

Parameters:
  - composite: *CompositeProfile, possibly with absent or unfetched sections

Returns:
  - int: 0-100, always a multiple of 20
*/
func Score(composite *CompositeProfile) int {
	score := 0

	if basicInfoComplete(composite.BasicInfo) {
		score += sectionWeight
	}
	if styleProfileComplete(composite.StyleProfile) {
		score += sectionWeight
	}
	if showcaseComplete(composite.Showcase) {
		score += sectionWeight
	}
	if experienceComplete(composite) {
		score += sectionWeight
	}
	if preferencesComplete(composite.Preferences) {
		score += sectionWeight
	}

	// Structurally already <= 100; the clamp guards against a future sixth
	// predicate being added without revisiting the weights.
	if score > 100 {
		score = 100
	}
	return score
}

// basicInfoComplete requires all four identity fields.
func basicInfoComplete(section Section) bool {
	return section.Get("fullName") != "" &&
		section.Get("email") != "" &&
		section.Get("phoneNo") != "" &&
		section.Get("category") != ""
}

// styleProfileComplete requires at least one physical attribute.
func styleProfileComplete(section Section) bool {
	if !section.IsPresent() {
		return false
	}
	for _, key := range styleKeys {
		if hasValue(section.Value[key]) {
			return true
		}
	}
	return false
}

// showcaseComplete requires at least one of files, social presence, languages.
func showcaseComplete(section Section) bool {
	if !section.IsPresent() {
		return false
	}
	for _, key := range showcaseKeys {
		if hasValue(section.Value[key]) {
			return true
		}
	}
	return false
}

// experienceComplete accepts either an education or a work-experience entry.
func experienceComplete(composite *CompositeProfile) bool {
	return len(composite.Educations) > 0 || len(composite.WorkExperiences) > 0
}

// preferencesComplete requires BOTH an attire flag and a job-type flag.
// Either group alone contributes nothing.
func preferencesComplete(section Section) bool {
	if !section.IsPresent() {
		return false
	}
	return anyFlagSet(section.Value, attireKeys) && anyFlagSet(section.Value, jobTypeKeys)
}

// anyFlagSet reports whether any of the candidate keys holds a set flag:
// a true boolean, a non-empty array, or a nested map with a true boolean.
func anyFlagSet(value map[string]any, keys []string) bool {
	for _, key := range keys {
		switch v := value[key].(type) {
		case bool:
			if v {
				return true
			}
		case []any:
			if len(v) > 0 {
				return true
			}
		case map[string]any:
			for _, nested := range v {
				if flag, ok := nested.(bool); ok && flag {
					return true
				}
			}
		}
	}
	return false
}

// hasValue reports whether a decoded JSON value is meaningfully non-empty.
func hasValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	case float64:
		return value != 0
	case bool:
		return value
	default:
		return true
	}
}
