package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/recs"
)

// Personas adjust the analyzer's reading of tone. Unknown personas fall
// back to friendly.
var personaVoices = map[string]string{
	"friendly":     "a warm, casual reading companion",
	"professional": "a precise librarian focused on accuracy",
	"mentor":       "an encouraging mentor who reads between the lines",
	"enthusiastic": "an excitable book club host",
}

// Extractor turns a free-text message into a structured recommendation
// intent via the LLM. Phase 1 of a turn: no retrieval, no database.
type Extractor struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewExtractor(llmProvider llm.LLMProvider, logger *log.Logger) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Extract resolves intent for one message. On any provider or parsing
// failure it returns the documented search-everything fallback so a turn
// never dies at the intent stage.
func (e *Extractor) Extract(
	ctx context.Context,
	message string,
	history []llm.Message,
	persona string,
	profileSummary string,
) recs.Intent {
	prompt := e.buildPrompt(message, history, persona, profileSummary)

	response, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		e.logger.Printf("[ERROR] Intent extraction failed: %v", err)
		return fallbackIntent(message)
	}

	intent, err := parseIntent(response)
	if err != nil {
		e.logger.Printf("[WARN] Intent parsing failed, using fallback: %v", err)
		return fallbackIntent(message)
	}

	e.logger.Printf("[INTENT] search=%t query=%q mood=%s count=%d specific=%q",
		intent.NeedsBookSearch, intent.OptimizedQuery, intent.EmotionalContext, intent.RequestedCount, intent.SpecificBookRequested)

	return intent
}

func (e *Extractor) buildPrompt(message string, history []llm.Message, persona, profileSummary string) string {
	voice, ok := personaVoices[strings.ToLower(persona)]
	if !ok {
		voice = personaVoices["friendly"]
	}

	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an intent analyzer for a book recommendation service, reading as ")
	prompt.WriteString(voice)
	prompt.WriteString(".\n")
	prompt.WriteString("You do NOT recommend books. You only extract structured intent.\n")
	prompt.WriteString("</system>\n\n")

	if profileSummary != "" {
		prompt.WriteString("<reader_profile>\n")
		prompt.WriteString(profileSummary)
		prompt.WriteString("\n</reader_profile>\n\n")
	}

	if len(history) > 0 {
		prompt.WriteString("<recent_history>\n")
		for _, msg := range history {
			prompt.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		prompt.WriteString("</recent_history>\n\n")
	}

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(message)
	prompt.WriteString("\n</user_message>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("- needs_book_search: false ONLY for greetings, thanks, or questions about the service itself.\n")
	prompt.WriteString("- optimized_query: rewrite the request as a dense search phrase, keep the user's language.\n")
	prompt.WriteString("- emotional_context: one lowercase word (neutral, sad, stressed, anxious, overwhelmed, curious, excited, bored, calm).\n")
	prompt.WriteString("- direct_response: a short reply when no search is needed, otherwise empty.\n")
	prompt.WriteString("- requested_count: how many books the user asked for, 0 if unstated.\n")
	prompt.WriteString("- specific_book_requested: the exact title if the user names one, otherwise empty.\n")
	prompt.WriteString("- inferred_genres: genres the user explicitly named or strongly implied, empty if none.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"needs_book_search\": true,\n")
	prompt.WriteString("  \"optimized_query\": \"...\",\n")
	prompt.WriteString("  \"emotional_context\": \"neutral\",\n")
	prompt.WriteString("  \"direct_response\": \"\",\n")
	prompt.WriteString("  \"requested_count\": 0,\n")
	prompt.WriteString("  \"specific_book_requested\": \"\",\n")
	prompt.WriteString("  \"inferred_genres\": []\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseIntent(response string) (recs.Intent, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return recs.Intent{}, fmt.Errorf("no JSON found in response")
	}

	var intent recs.Intent
	if err := json.Unmarshal([]byte(jsonContent), &intent); err != nil {
		return recs.Intent{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	intent.EmotionalContext = strings.ToLower(strings.TrimSpace(intent.EmotionalContext))
	if intent.EmotionalContext == "" {
		intent.EmotionalContext = "neutral"
	}
	if intent.OptimizedQuery == "" {
		intent.OptimizedQuery = intent.SpecificBookRequested
	}

	return intent, nil
}

func fallbackIntent(message string) recs.Intent {
	return recs.Intent{
		NeedsBookSearch:  true,
		OptimizedQuery:   message,
		EmotionalContext: "neutral",
		RequestedCount:   5,
	}
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
