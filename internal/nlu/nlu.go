// Package nlu holds the heuristic language understanding used to annotate prompts
// before they reach the model.
package nlu

import (
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
)

// TimeResolver turns a free-text time expression into a concrete instant.
type TimeResolver interface {
	Resolve(text string, now time.Time) domain.TimeResolution
}

// IntentExtractor classifies a prompt and extracts a mentioned doctor.
type IntentExtractor interface {
	Extract(text string) domain.IntentResult
}

// DefaultTimeZone is the zone assumed for the user population.
const DefaultTimeZone = "Asia/Kolkata"

// LoadLocation resolves name to a location, falling back to a fixed +05:30 zone
// when the tz database is unavailable.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}
