// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completeBasicInfo() Section {
	return Present(map[string]any{
		"fullName": "Avery North",
		"email":    "avery@castline.app",
		"phoneNo":  "+94771234567",
		"category": "model",
	})
}

func TestScore_BasicInfoOnly(t *testing.T) {
	composite := &CompositeProfile{BasicInfo: completeBasicInfo()}

	assert.Equal(t, 20, Score(composite))
}

func TestScore_BasicInfoRequiresAllFourFields(t *testing.T) {
	composite := &CompositeProfile{
		BasicInfo: Present(map[string]any{
			"fullName": "Avery North",
			"email":    "avery@castline.app",
			"phoneNo":  "+94771234567",
			// category missing
		}),
	}

	assert.Equal(t, 0, Score(composite))
}

func TestScore_PreferencesRequiresBothFlagGroups(t *testing.T) {
	attireOnly := &CompositeProfile{
		Preferences: Present(map[string]any{
			"attires": []any{"formal"},
		}),
	}
	assert.Equal(t, 0, Score(attireOnly), "an attire flag alone contributes nothing")

	both := &CompositeProfile{
		Preferences: Present(map[string]any{
			"attires":  []any{"formal"},
			"jobTypes": map[string]any{"modeling": true},
		}),
	}
	assert.Equal(t, 20, Score(both))
}

func TestScore_ExperienceAcceptsEitherCollection(t *testing.T) {
	educationOnly := &CompositeProfile{Educations: []any{map[string]any{"school": "Uni"}}}
	assert.Equal(t, 20, Score(educationOnly))

	workOnly := &CompositeProfile{WorkExperiences: []any{map[string]any{"company": "Studio"}}}
	assert.Equal(t, 20, Score(workOnly))
}

func TestScore_StyleProfileAnyAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]any
		want  int
	}{
		{"height only", map[string]any{"height": "180cm"}, 20},
		{"weight as number", map[string]any{"weight": 72.5}, 20},
		{"body type only", map[string]any{"bodyType": "athletic"}, 20},
		{"all attributes empty", map[string]any{"height": "", "weight": float64(0)}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			composite := &CompositeProfile{StyleProfile: Present(tc.value)}
			assert.Equal(t, tc.want, Score(composite))
		})
	}
}

func TestScore_FullProfile(t *testing.T) {
	composite := &CompositeProfile{
		BasicInfo:    completeBasicInfo(),
		StyleProfile: Present(map[string]any{"height": "180cm"}),
		Showcase:     Present(map[string]any{"languages": []any{"en", "si"}}),
		Educations:   []any{map[string]any{"school": "Uni"}},
		Preferences: Present(map[string]any{
			"attireFlags":  map[string]any{"casual": true},
			"jobTypeFlags": map[string]any{"acting": true},
		}),
	}

	assert.Equal(t, 100, Score(composite))
}

func TestScore_AlwaysMultipleOfTwenty(t *testing.T) {
	composites := []*CompositeProfile{
		{},
		{BasicInfo: completeBasicInfo()},
		{BasicInfo: Absent(), StyleProfile: Absent()},
		{Showcase: Present(map[string]any{"files": []any{"a.jpg"}})},
		{
			BasicInfo:       completeBasicInfo(),
			WorkExperiences: []any{map[string]any{"company": "Studio"}},
		},
	}

	allowed := map[int]bool{0: true, 20: true, 40: true, 60: true, 80: true, 100: true}
	for _, composite := range composites {
		score := Score(composite)
		assert.True(t, allowed[score], "score %d is not a multiple of 20", score)

		// Pure and idempotent: scoring again changes nothing.
		assert.Equal(t, score, Score(composite))
	}
}
