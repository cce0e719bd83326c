package recs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanDefaults(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(Intent{NeedsBookSearch: true, OptimizedQuery: "space opera"})

	assert.True(t, plan.ShouldSearch)
	assert.Equal(t, "space opera", plan.SearchQuery)
	assert.Equal(t, 5, plan.ResultCount)
	assert.Empty(t, plan.GenreFilter)
	assert.Empty(t, plan.SpecificTitle)
}

func TestPlanClampsResultCount(t *testing.T) {
	p := NewPlanner()

	assert.Equal(t, 20, p.Plan(Intent{RequestedCount: 50}).ResultCount)
	assert.Equal(t, 1, p.Plan(Intent{RequestedCount: -3}).ResultCount)
	assert.Equal(t, 7, p.Plan(Intent{RequestedCount: 7}).ResultCount)
}

func TestPlanLowMoodBiasesUpliftingGenres(t *testing.T) {
	p := NewPlanner()

	for _, mood := range []string{"sad", "stressed", "anxious", "overwhelmed", " Stressed "} {
		plan := p.Plan(Intent{NeedsBookSearch: true, EmotionalContext: mood})
		assert.Equal(t, []string{"Self-Help", "Inspirational"}, plan.GenreFilter, "mood %q", mood)
	}
}

func TestPlanExplicitGenresWinOverMoodBias(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(Intent{
		NeedsBookSearch:  true,
		EmotionalContext: "stressed",
		InferredGenres:   []string{"Horror"},
	})

	assert.Equal(t, []string{"Horror"}, plan.GenreFilter)
}

func TestPlanNeutralMoodNoBias(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(Intent{NeedsBookSearch: true, EmotionalContext: "curious"})
	assert.Empty(t, plan.GenreFilter)
}

func TestPlanPassesSpecificTitleVerbatim(t *testing.T) {
	p := NewPlanner()

	plan := p.Plan(Intent{SpecificBookRequested: "Atomic Habits"})
	assert.Equal(t, "Atomic Habits", plan.SpecificTitle)
}

func TestPlanIsPure(t *testing.T) {
	p := NewPlanner()
	intent := Intent{
		NeedsBookSearch:  true,
		OptimizedQuery:   "uplifting stories",
		EmotionalContext: "stressed",
		RequestedCount:   3,
	}

	first := p.Plan(intent)
	second := p.Plan(intent)

	assert.Equal(t, first, second)
}

func TestPlanDoesNotMutateIntentGenres(t *testing.T) {
	p := NewPlanner()
	intent := Intent{InferredGenres: []string{"Fantasy"}}

	plan := p.Plan(intent)
	plan.GenreFilter[0] = "changed"

	assert.Equal(t, "Fantasy", intent.InferredGenres[0])
}
