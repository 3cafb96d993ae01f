package tools

import (
	"sort"
	"strconv"
	"strings"
)

// FindClosestSlots returns up to count slots from available ordered by their
// distance to requested ("HH:MM"). Unparseable input keeps the original order.
func FindClosestSlots(available []string, requested string, count int) []string {
	if len(available) == 0 || count <= 0 {
		return nil
	}
	if count > len(available) {
		count = len(available)
	}

	target, ok := clockMinutes(requested)
	if !ok {
		return append([]string(nil), available[:count]...)
	}

	type candidate struct {
		slot     string
		distance int
	}
	candidates := make([]candidate, 0, len(available))
	for _, slot := range available {
		m, ok := clockMinutes(slot)
		if !ok {
			return append([]string(nil), available[:count]...)
		}
		d := m - target
		if d < 0 {
			d = -d
		}
		candidates = append(candidates, candidate{slot: slot, distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	out := make([]string, 0, count)
	for _, c := range candidates[:count] {
		out = append(out, c.slot)
	}
	return out
}

func clockMinutes(s string) (int, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}
