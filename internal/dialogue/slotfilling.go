package dialogue

import "github.com/aiox-platform/shopassist/internal/conversation"

// slotStep is the outcome of feeding one search message into the slot state.
type slotStep struct {
	Slots    conversation.SlotState
	Ready    bool
	Missing  string
	Question string
}

// advanceSlots merges the extracted values into current. A category that
// differs from the carried one starts a new search unless the shopper is
// mid-way through answering questions.
func advanceSlots(current conversation.SlotState, e Entities) slotStep {
	base := current
	if e.Category != "" && current.Category != "" && e.Category != current.Category &&
		current.Phase() != conversation.SlotPartial {
		base = current.Reset()
	}

	merged := base.Merge(e.Slots())
	if merged.IsComplete() {
		return slotStep{Slots: merged, Ready: true}
	}

	step := slotStep{Slots: merged}
	if missing := merged.Missing(); len(missing) > 0 {
		step.Missing = missing[0]
	}
	switch step.Missing {
	case conversation.SlotCategory:
		step.Question = replyAskCategory
	default:
		step.Question = replyAskStyleOrColor
	}
	return step
}
