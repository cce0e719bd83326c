package utils

import (
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanDescription strips HTML tags, collapses whitespace and truncates to
// maxLength, preferring a sentence boundary when one sits late enough in the
// text.
func CleanDescription(text string, maxLength int) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	if maxLength > 0 && len(text) > maxLength {
		truncated := text[:maxLength]
		lastPeriod := strings.LastIndex(truncated, ".")
		if float64(lastPeriod) > float64(maxLength)*0.7 {
			text = truncated[:lastPeriod+1]
		} else {
			if idx := strings.LastIndex(truncated, " "); idx > 0 {
				truncated = truncated[:idx]
			}
			text = truncated + "..."
		}
	}

	return text
}

var genreMap = map[string]string{
	"sci-fi":      "Science Fiction",
	"scifi":       "Science Fiction",
	"sf":          "Science Fiction",
	"fantasy":     "Fantasy",
	"romance":     "Romance",
	"mystery":     "Mystery",
	"thriller":    "Thriller",
	"horror":      "Horror",
	"non-fiction": "Non-Fiction",
	"nonfiction":  "Non-Fiction",
	"biography":   "Biography",
	"history":     "History",
	"self-help":   "Self-Help",
	"selfhelp":    "Self-Help",
}

// NormalizeGenre maps common genre spellings onto canonical catalog names.
// Unknown genres are title-cased as-is.
func NormalizeGenre(genre string) string {
	key := strings.ToLower(strings.TrimSpace(genre))
	if normalized, ok := genreMap[key]; ok {
		return normalized
	}
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
