package nlu

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/xiaot623/healthflow/internal/domain"
)

var (
	bookingKeywords      = []string{"book", "schedule", "make appointment", "reserve", "set up"}
	availabilityKeywords = []string{"available", "free", "open", "doctors available", "which doctors"}
	questionKeywords     = []string{"what", "when", "available", "free", "check", "show", "list", "which"}

	doctorPattern = regexp.MustCompile(`\b(?:dr(?:\.\s*|\s+)|doctor\s+)([a-z]+(?:\s+[a-z]+)?)`)

	// nameStopWords may follow a surname without being part of it.
	nameStopWords = map[string]bool{
		"today": true, "tomorrow": true, "next": true, "this": true, "at": true, "on": true,
		"for": true, "in": true, "and": true, "with": true, "to": true, "is": true,
		"morning": true, "afternoon": true, "evening": true,
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
)

// KeywordIntentExtractor classifies prompts by keyword sets.
type KeywordIntentExtractor struct{}

// NewIntentExtractor creates a keyword based extractor.
func NewIntentExtractor() *KeywordIntentExtractor {
	return &KeywordIntentExtractor{}
}

var _ IntentExtractor = (*KeywordIntentExtractor)(nil)

// Extract returns the first matching intent and any doctor name mentioned.
func (KeywordIntentExtractor) Extract(text string) domain.IntentResult {
	lower := strings.ToLower(text)

	result := domain.IntentResult{Intent: domain.IntentUnclear}
	switch {
	case containsAny(lower, bookingKeywords):
		result.Intent = domain.IntentBook
	case containsAny(lower, availabilityKeywords):
		result.Intent = domain.IntentAvailability
	case containsAny(lower, questionKeywords):
		result.Intent = domain.IntentQuery
	}

	if m := doctorPattern.FindStringSubmatch(lower); m != nil {
		result.DoctorName = titleCase(trimName(m[1]))
	}
	return result
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func trimName(captured string) string {
	words := strings.Fields(captured)
	if len(words) == 2 && nameStopWords[words[1]] {
		words = words[:1]
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
