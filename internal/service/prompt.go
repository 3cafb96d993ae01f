package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/nlu"
	"github.com/xiaot623/healthflow/internal/tools"
)

const (
	localClockLayout  = "2006-01-02 15:04"
	closestSlotsCount = 3
)

// systemPrompt is added once, on the first turn of a conversation.
func systemPrompt(caller *domain.User, now time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("You are an intelligent medical appointment assistant. You are conversational, direct, and decisive.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	if caller.IsDoctor() {
		fmt.Fprintf(&b, "- The user is a doctor (ID %d). Doctors can look up colleagues and schedules but cannot book appointments here.\n", caller.ID)
	} else {
		fmt.Fprintf(&b, "- Patient ID is ALWAYS %d\n", caller.ID)
	}
	fmt.Fprintf(&b, "- Current time: %s (UTC)\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Current local time: %s\n", now.In(loc).Format(localClockLayout))
	fmt.Fprintf(&b, "- User timezone: %s\n", loc.String())
	b.WriteString(`- NEVER explain your internal process or reasoning
- Be natural and conversational like a human assistant
- ALWAYS understand common date references:
  * "today" = current date
  * "tomorrow" = current date + 1 day
  * "next [weekday]" = next occurrence of that weekday
- Tool times are UTC ISO 8601; slot lists are local HH:MM times
- When asked about doctor availability for a date, ALWAYS:
  1. Use find_all_doctors to get all doctors
  2. For each doctor, use get_available_slots to check their schedule
  3. Present doctors who have available slots

WORKFLOW FOR BOOKING:
1. Extract complete booking info (doctor, date, time)
2. Check patient availability first using check_patient_availability
3. If patient free, book immediately
4. If requested time unavailable, suggest 3 closest alternatives`)
	return b.String()
}

// contextSummary re-anchors relative dates and restates what the
// conversation has established so far. It is added on every turn.
func contextSummary(intent domain.IntentResult, res domain.TimeResolution, c domain.ExtractedContext, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	today := local.Format(nlu.DateLayout)
	tomorrow := local.AddDate(0, 0, 1).Format(nlu.DateLayout)

	var b strings.Builder
	b.WriteString("CONVERSATION CONTEXT:\n")
	fmt.Fprintf(&b, "- Intent: %s\n", intent.Intent)
	fmt.Fprintf(&b, "- Doctor mentioned: %s\n", orNone(c.DoctorName))
	fmt.Fprintf(&b, "- Today's date: %s\n", today)
	fmt.Fprintf(&b, "- Tomorrow's date: %s\n", tomorrow)
	fmt.Fprintf(&b, "- Last requested date: %s\n", orNone(c.Date))
	fmt.Fprintf(&b, "- Last requested time: %s\n", orNone(c.Time))
	if c.DoctorID != 0 {
		fmt.Fprintf(&b, "- Last doctor ID: %d\n", c.DoctorID)
	} else {
		b.WriteString("- Last doctor ID: None\n")
	}
	if len(c.AvailableSlots) > 0 {
		fmt.Fprintf(&b, "- Last available slots: %s\n", strings.Join(c.AvailableSlots, ", "))
		if c.Time != "" && !containsString(c.AvailableSlots, c.Time) {
			if closest := tools.FindClosestSlots(c.AvailableSlots, c.Time, closestSlotsCount); len(closest) > 0 {
				fmt.Fprintf(&b, "- Closest slots to the requested time: %s\n", strings.Join(closest, ", "))
			}
		}
	}
	fmt.Fprintf(&b, "- Time parsed successfully: %t\n", res.Success)
	if res.Success && res.Instant != nil {
		fmt.Fprintf(&b, "- Requested instant (UTC): %s\n", res.Instant.UTC().Format(time.RFC3339))
	}

	fmt.Fprintf(&b, "\nSMART DATE UNDERSTANDING:\n")
	fmt.Fprintf(&b, "- If user says \"tomorrow\", use date: %s\n", tomorrow)
	fmt.Fprintf(&b, "- If user says \"today\", use date: %s\n", today)
	b.WriteString("- For availability queries about a date, get ALL doctors first, then check each doctor's schedule\n\n")
	b.WriteString("Use this context to understand the user's request and take appropriate action.")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
