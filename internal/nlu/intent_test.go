package nlu

import (
	"testing"

	"github.com/xiaot623/healthflow/internal/domain"
)

func TestExtractIntentPrecedence(t *testing.T) {
	x := NewIntentExtractor()

	tests := []struct {
		text string
		want domain.Intent
	}{
		{"Book doctor smith tomorrow at 3pm", domain.IntentBook},
		{"please schedule something, are you free?", domain.IntentBook},
		{"can you set up a visit", domain.IntentBook},
		{"which doctors are available tomorrow", domain.IntentAvailability},
		{"is the clinic open", domain.IntentAvailability},
		{"show my appointments", domain.IntentQuery},
		{"when is it", domain.IntentQuery},
		{"hello there", domain.IntentUnclear},
	}
	for _, tt := range tests {
		if got := x.Extract(tt.text).Intent; got != tt.want {
			t.Errorf("Extract(%q) intent = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestExtractDoctorName(t *testing.T) {
	x := NewIntentExtractor()

	tests := []struct {
		text string
		want string
	}{
		{"book doctor smith tomorrow at 3pm", "Smith"},
		{"Is Dr. Jane Doe free?", "Jane Doe"},
		{"dr patel", "Patel"},
		{"see DOCTOR ahmed on friday", "Ahmed"},
		{"no doctor mentioned", "Mentioned"},
		{"hi", ""},
		{"update my address please", ""},
		{"book with Andrew", ""},
		{"the doctorate office", ""},
		{"i will drive there", ""},
		{"ask dr.smith", "Smith"},
	}
	for _, tt := range tests {
		if got := x.Extract(tt.text).DoctorName; got != tt.want {
			t.Errorf("Extract(%q) doctor = %q, want %q", tt.text, got, tt.want)
		}
	}
}
