// Package session holds per-chat navigation state for the decision-tree
// engine: the active pack/fault binding, the history stack, and the
// message-bound recovery mirror.
package session

import (
	"github.com/voltwrench/faultbot/pkg/schema"
)

// State is the navigation state of one chat.
//
// Invariant: once a decision tree has been entered, History is non-empty and
// its top is the node currently displayed. Pack and FaultID are both empty
// when no fault is active (a menu is showing).
type State struct {
	Pack           schema.Manufacturer `json:"pack,omitempty"`
	FaultID        string              `json:"fault_id,omitempty"`
	History        []string            `json:"history"`
	Answers        map[string]string   `json:"answers,omitempty"`
	BoundMessageID int                 `json:"bound_message_id,omitempty"`
}

// CurrentNode is the single accessor tying "current node" to "top of history":
// the top entry, or the tree's start node when history is empty. Advance and
// GoBack both go through here so they can never disagree.
func (s State) CurrentNode(tree *schema.DecisionTree) string {
	if n := len(s.History); n > 0 {
		return s.History[n-1]
	}
	if tree != nil {
		return tree.Start
	}
	return ""
}

// Active reports whether a fault is bound to this state.
func (s State) Active() bool {
	return s.Pack != "" && s.FaultID != ""
}

// Clone deep-copies the state so mirror snapshots never alias live slices.
func (s State) Clone() State {
	cp := s
	cp.History = append([]string(nil), s.History...)
	if s.Answers != nil {
		cp.Answers = make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			cp.Answers[k] = v
		}
	}
	return cp
}

// Patch is a partial state update. Nil fields leave the existing value alone;
// History non-nil replaces the stack wholesale; Answers entries are merged
// unless ResetAnswers drops the trail first (fault rebinds do that).
type Patch struct {
	Pack         *schema.Manufacturer
	FaultID      *string
	History      []string
	Answers      map[string]string
	ResetAnswers bool
}

// PatchFrom turns a full state snapshot into a patch that restores it,
// used when promoting message-bound state back to session level.
func PatchFrom(s State) Patch {
	st := s.Clone()
	p := Patch{
		Pack:         &st.Pack,
		FaultID:      &st.FaultID,
		History:      st.History,
		ResetAnswers: true,
		Answers:      st.Answers,
	}
	if p.History == nil {
		p.History = []string{}
	}
	return p
}

// Store is the chat-level session store. Implementations must be safe for
// concurrent use across different chats; within one chat the dispatcher
// applies actions to completion one at a time.
type Store interface {
	Get(chatID int64) (State, bool)
	// Set merges a partial patch into existing or default state and returns
	// the result. History is always coerced to a non-nil slice.
	Set(chatID int64, p Patch) State
	Clear(chatID int64)
	// PushHistory appends nodeID unless it already tops the stack, so
	// re-renders of the same node stay idempotent.
	PushHistory(chatID int64, nodeID string) State
	// PopHistory removes the top entry and returns the new top. ok is false
	// when the stack held one or zero entries — the caller shows the fault
	// card instead of a node, and the stack is left empty, never negative.
	PopHistory(chatID int64) (string, bool)
}

// MessageStore mirrors the session state a specific rendered message was
// built from, keyed by (chat, message). It is a recovery cache, not an
// authoritative store: there is deliberately no clear or pop.
type MessageStore interface {
	Get(chatID int64, messageID int) (State, bool)
	Set(chatID int64, messageID int, s State)
}
