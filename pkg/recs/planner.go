package recs

import "strings"

const (
	defaultResultCount = 5
	minResultCount     = 1
	maxResultCount     = 20
)

// lowMoods are the emotional contexts that trigger the uplifting genre
// bias when the user did not name a genre themselves.
var lowMoods = map[string]struct{}{
	"sad":         {},
	"stressed":    {},
	"anxious":     {},
	"overwhelmed": {},
}

// upliftingGenres is the fixed genre bias applied for low moods. Explicit
// genre intent always wins over this heuristic.
var upliftingGenres = []string{"Self-Help", "Inspirational"}

// Planner turns extracted intent into a retrieval plan. Pure logic, no
// I/O and no learned state.
type Planner struct{}

func NewPlanner() *Planner {
	return &Planner{}
}

func (p *Planner) Plan(intent Intent) SearchPlan {
	count := intent.RequestedCount
	if count == 0 {
		count = defaultResultCount
	}
	if count < minResultCount {
		count = minResultCount
	}
	if count > maxResultCount {
		count = maxResultCount
	}

	genres := append([]string(nil), intent.InferredGenres...)
	mood := strings.ToLower(strings.TrimSpace(intent.EmotionalContext))
	if _, low := lowMoods[mood]; low && len(genres) == 0 {
		genres = append(genres, upliftingGenres...)
	}

	return SearchPlan{
		ShouldSearch:  intent.NeedsBookSearch,
		SearchQuery:   intent.OptimizedQuery,
		ResultCount:   count,
		GenreFilter:   genres,
		SpecificTitle: intent.SpecificBookRequested,
		Mood:          mood,
	}
}
