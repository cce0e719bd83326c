package recs

// Strategy is the presentation tone for a recommendation turn. It guides
// narration only and never changes which books are selected.
type Strategy string

const (
	StrategyStandard  Strategy = "standard"
	StrategyComfort   Strategy = "comfort"
	StrategyChallenge Strategy = "challenge"
	StrategyExplore   Strategy = "explore"
)

// Intent is the structured output of the intent extractor for one user
// message.
type Intent struct {
	NeedsBookSearch       bool     `json:"needs_book_search"`
	OptimizedQuery        string   `json:"optimized_query"`
	EmotionalContext      string   `json:"emotional_context"`
	DirectResponse        string   `json:"direct_response,omitempty"`
	RequestedCount        int      `json:"requested_count"`
	SpecificBookRequested string   `json:"specific_book_requested,omitempty"`
	InferredGenres        []string `json:"inferred_genres,omitempty"`
}

// SearchPlan is the deterministic retrieval plan derived from an Intent.
// Pure value object, no side effects.
type SearchPlan struct {
	ShouldSearch  bool
	SearchQuery   string
	ResultCount   int
	GenreFilter   []string
	SpecificTitle string
	Mood          string
}
