package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/recs"
)

// toneInstructions per strategy. Tone only: the book list and its order
// are fixed before the narrator ever sees them.
var toneInstructions = map[recs.Strategy]string{
	recs.StrategyStandard:  "Be helpful and direct.",
	recs.StrategyComfort:   "Be gentle and reassuring. The reader is having a rough time; emphasize warmth and low-pressure reads.",
	recs.StrategyChallenge: "Be energizing. The reader wants to stretch; emphasize what makes each book demanding or mind-expanding.",
	recs.StrategyExplore:   "Be playful. The reader is bored; emphasize novelty and the unexpected.",
}

// Narration is the narrator's output: an intro line plus one explanation
// per book, aligned by index with the input list.
type Narration struct {
	Intro        string
	Explanations []string
}

// Narrator turns a fixed, ordered book list into reader-facing prose. It
// may only explain the given order; reorder, add or drop attempts in the
// model output are discarded by index-based matching.
type Narrator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewNarrator(llmProvider llm.LLMProvider, logger *log.Logger) *Narrator {
	return &Narrator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

type narrationResponse struct {
	Intro        string `json:"intro"`
	Explanations []struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	} `json:"explanations"`
}

// Narrate produces the intro and per-book explanations. Any failure
// degrades to description-based pseudo-explanations in the same order.
func (n *Narrator) Narrate(
	ctx context.Context,
	userMessage string,
	books []entity.Book,
	strategy recs.Strategy,
	persona string,
) Narration {
	fallback := n.fallbackNarration(books, strategy)
	if len(books) == 0 {
		return fallback
	}

	prompt := n.buildPrompt(userMessage, books, strategy, persona)

	response, err := n.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		n.logger.Printf("[WARN] Narration failed, using descriptions: %v", err)
		return fallback
	}

	parsed, err := parseNarration(response)
	if err != nil {
		n.logger.Printf("[WARN] Narration parsing failed, using descriptions: %v", err)
		return fallback
	}

	result := fallback
	if strings.TrimSpace(parsed.Intro) != "" {
		result.Intro = strings.TrimSpace(parsed.Intro)
	}
	// Index-based matching only. Out-of-range or duplicate indices are
	// ignored rather than trusted.
	for _, exp := range parsed.Explanations {
		if exp.Index < 0 || exp.Index >= len(books) {
			continue
		}
		if reason := strings.TrimSpace(exp.Reason); reason != "" {
			result.Explanations[exp.Index] = reason
		}
	}

	return result
}

func (n *Narrator) buildPrompt(userMessage string, books []entity.Book, strategy recs.Strategy, persona string) string {
	tone, ok := toneInstructions[strategy]
	if !ok {
		tone = toneInstructions[recs.StrategyStandard]
	}

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You explain book recommendations. The list below is FINAL: same books, same order.\n")
	prompt.WriteString("You must not reorder, add, drop, or substitute books.\n")
	prompt.WriteString(tone)
	prompt.WriteString("\n</system>\n\n")

	if persona != "" {
		prompt.WriteString(fmt.Sprintf("<persona>%s</persona>\n\n", persona))
	}

	prompt.WriteString("<user_request>\n")
	prompt.WriteString(userMessage)
	prompt.WriteString("\n</user_request>\n\n")

	prompt.WriteString("<books>\n")
	for i, book := range books {
		prompt.WriteString(fmt.Sprintf("%d. %q by %s (%s): %s\n", i, book.Title, book.Author, book.Genre, book.Description))
	}
	prompt.WriteString("</books>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"intro\": \"one friendly opening sentence\",\n")
	prompt.WriteString("  \"explanations\": [{\"index\": 0, \"reason\": \"1-2 sentences on why this book fits\"}]\n")
	prompt.WriteString("}\n")
	prompt.WriteString("Use the exact zero-based index of each book.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (n *Narrator) fallbackNarration(books []entity.Book, strategy recs.Strategy) Narration {
	intro := "Here is what I found for you."
	switch strategy {
	case recs.StrategyComfort:
		intro = "Here are some gentle picks that might help."
	case recs.StrategyChallenge:
		intro = "Ready for something that will stretch you? Try these."
	case recs.StrategyExplore:
		intro = "Time for something different. Have a look at these."
	}

	explanations := make([]string, len(books))
	for i, book := range books {
		if strings.TrimSpace(book.Description) != "" {
			explanations[i] = book.Description
		} else {
			explanations[i] = fmt.Sprintf("%s by %s.", book.Title, book.Author)
		}
	}

	return Narration{Intro: intro, Explanations: explanations}
}

// AnswerWithoutBooks produces a knowledge-based reply for turns where
// every retrieval tier came back empty. The reader always gets an answer.
func (n *Narrator) AnswerWithoutBooks(ctx context.Context, userMessage, persona string) string {
	prompt := fmt.Sprintf(`A reader asked a book service: %q

No catalog results were available. Answer from general knowledge about books and reading.
Suggest what they might look for, in 2-3 sentences. Do not apologize more than once.`, userMessage)

	response, err := n.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil || strings.TrimSpace(response) == "" {
		n.logger.Printf("[WARN] Knowledge answer failed: %v", err)
		return "I couldn't find a match in the catalog this time, but tell me a bit more about what you're in the mood for and I'll dig deeper."
	}
	return strings.TrimSpace(response)
}

func parseNarration(response string) (*narrationResponse, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var parsed narrationResponse
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &parsed); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return &parsed, nil
}
