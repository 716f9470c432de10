// internal/conversation/state.go
package conversation

import (
	"fmt"
	"strings"
)

// State is the ordered transcript of a session. It has a single writer (the
// orchestrator) and enforces the pairing rule on every append: an assistant
// tool-request turn must be answered by the matching tool turn before anything
// else is appended.
type State struct {
	turns []Turn
	ids   map[string]struct{}
}

// NewState returns an empty transcript, seeded with a system turn when
// systemPrompt is not blank.
func NewState(systemPrompt string) *State {
	s := &State{ids: make(map[string]struct{})}
	if strings.TrimSpace(systemPrompt) != "" {
		s.turns = append(s.turns, SystemTurn(systemPrompt))
	}
	return s
}

// Append adds t to the end of the transcript.
func (s *State) Append(t Turn) error {
	if err := s.check(t); err != nil {
		return err
	}
	if t.IsToolRequest() {
		s.ids[t.Call.ID] = struct{}{}
	}
	s.turns = append(s.turns, t)
	return nil
}

func (s *State) check(t Turn) error {
	pending := s.Pending()
	switch t.Role {
	case RoleSystem:
		if len(s.turns) > 0 {
			return fmt.Errorf("system turn must be the first turn")
		}
	case RoleUser:
		if pending != nil {
			return fmt.Errorf("user turn appended while tool request %q is unanswered", pending.ID)
		}
	case RoleAssistant:
		if pending != nil {
			return fmt.Errorf("assistant turn appended while tool request %q is unanswered", pending.ID)
		}
		if t.Call != nil {
			if strings.TrimSpace(t.Call.ID) == "" {
				return fmt.Errorf("tool request for %q has no id", t.Call.Name)
			}
			if _, seen := s.ids[t.Call.ID]; seen {
				return fmt.Errorf("tool request id %q already used", t.Call.ID)
			}
		}
	case RoleTool:
		if t.Result == nil {
			return fmt.Errorf("tool turn has no result")
		}
		if pending == nil {
			return fmt.Errorf("tool result %q does not answer a pending request", t.Result.RequestID)
		}
		if pending.ID != t.Result.RequestID {
			return fmt.Errorf("tool result %q does not match pending request %q", t.Result.RequestID, pending.ID)
		}
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
	return nil
}

// Pending returns the tool request still waiting for its result, if any.
func (s *State) Pending() *ToolInvocationRequest {
	if len(s.turns) == 0 {
		return nil
	}
	last := s.turns[len(s.turns)-1]
	if last.IsToolRequest() {
		return last.Call
	}
	return nil
}

// Ready returns an error when the transcript may not be submitted to the
// completion endpoint because a tool request is unanswered.
func (s *State) Ready() error {
	if p := s.Pending(); p != nil {
		return fmt.Errorf("tool request %q (%s) has no result yet", p.ID, p.Name)
	}
	return nil
}

// Used reports whether a tool request with this id is already in the transcript.
func (s *State) Used(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Turns returns a copy of the transcript.
func (s *State) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *State) Len() int {
	return len(s.turns)
}

// Checkpoint marks the current end of the transcript for a later Rollback.
func (s *State) Checkpoint() int {
	return len(s.turns)
}

// Rollback truncates the transcript back to a checkpoint.
func (s *State) Rollback(checkpoint int) {
	if checkpoint < 0 || checkpoint >= len(s.turns) {
		return
	}
	for _, t := range s.turns[checkpoint:] {
		if t.IsToolRequest() {
			delete(s.ids, t.Call.ID)
		}
	}
	s.turns = s.turns[:checkpoint]
}

// Validate checks a whole transcript against the pairing rule: every assistant
// tool-request turn is immediately followed by exactly one tool turn with the
// same id, and no tool turn appears anywhere else.
func Validate(turns []Turn) error {
	check := NewState("")
	for i, t := range turns {
		if err := check.Append(t); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return check.Ready()
}
