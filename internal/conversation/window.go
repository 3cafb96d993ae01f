package conversation

import "github.com/xiaot623/healthflow/internal/domain"

// window trims msgs to the configured size. The leading system prompt is always
// kept and the retained tail starts at a user message, so tool results never
// lose the assistant message that requested them.
func (s *Store) window(msgs []domain.Message) []domain.Message {
	return applyWindow(msgs, s.maxMessages)
}

func applyWindow(msgs []domain.Message, max int) []domain.Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}

	var head []domain.Message
	if msgs[0].Role == domain.RoleSystem {
		head = msgs[:1]
	}

	budget := max - len(head)
	if budget < 1 {
		budget = 1
	}
	cut := len(msgs) - budget
	if cut < len(head) {
		cut = len(head)
	}

	start := -1
	for i := cut; i < len(msgs); i++ {
		if msgs[i].Role == domain.RoleUser {
			start = i
			break
		}
	}
	if start < 0 {
		// No user message inside the budget: keep the whole current turn.
		for i := cut - 1; i >= len(head); i-- {
			if msgs[i].Role == domain.RoleUser {
				start = i
				break
			}
		}
	}
	if start < 0 {
		start = cut
	}

	out := make([]domain.Message, 0, len(head)+len(msgs)-start)
	out = append(out, head...)
	return append(out, msgs[start:]...)
}
