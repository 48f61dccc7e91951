package session

import (
	"testing"
	"time"

	"github.com/voltwrench/faultbot/pkg/schema"
)

func TestMemory_SetMergesPartialPatch(t *testing.T) {
	m := NewMemory()
	pack := schema.Autel
	fid := "f1"

	st := m.Set(1, Patch{Pack: &pack})
	if st.Pack != schema.Autel || st.FaultID != "" {
		t.Fatalf("state = %+v", st)
	}
	if st.History == nil || len(st.History) != 0 {
		t.Fatalf("history not coerced to empty slice: %+v", st.History)
	}

	st = m.Set(1, Patch{FaultID: &fid, History: []string{"n1"}})
	if st.Pack != schema.Autel || st.FaultID != "f1" || len(st.History) != 1 {
		t.Fatalf("state = %+v", st)
	}
}

func TestMemory_PushHistoryIdempotentTop(t *testing.T) {
	m := NewMemory()
	m.PushHistory(1, "n1")
	m.PushHistory(1, "n2")
	st := m.PushHistory(1, "n2") // re-render of same node
	if len(st.History) != 2 {
		t.Fatalf("history = %v", st.History)
	}
	st = m.PushHistory(1, "n1") // revisit is a real push, only consecutive repeats dedupe
	if len(st.History) != 3 {
		t.Fatalf("history = %v", st.History)
	}
}

func TestMemory_PopHistory(t *testing.T) {
	m := NewMemory()
	m.PushHistory(1, "n1")
	m.PushHistory(1, "n2")

	top, ok := m.PopHistory(1)
	if !ok || top != "n1" {
		t.Fatalf("pop = %q, %v", top, ok)
	}

	// One entry left: pop signals "show the fault card" and empties the stack.
	if _, ok := m.PopHistory(1); ok {
		t.Fatal("expected terminal pop")
	}
	st, _ := m.Get(1)
	if len(st.History) != 0 {
		t.Fatalf("history = %v", st.History)
	}

	// Popping again stays terminal, not an error.
	if _, ok := m.PopHistory(1); ok {
		t.Fatal("expected terminal pop on empty stack")
	}
}

func TestMemory_AnswersMergeAndReset(t *testing.T) {
	m := NewMemory()
	m.Set(1, Patch{Answers: map[string]string{"n1": "Yes"}})
	st := m.Set(1, Patch{Answers: map[string]string{"n2": "No"}})
	if len(st.Answers) != 2 {
		t.Fatalf("answers = %v", st.Answers)
	}
	st = m.Set(1, Patch{ResetAnswers: true, Answers: map[string]string{"n3": "Maybe"}})
	if len(st.Answers) != 1 || st.Answers["n3"] != "Maybe" {
		t.Fatalf("answers = %v", st.Answers)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.PushHistory(1, "n1")
	st, _ := m.Get(1)
	st.History[0] = "mutated"
	fresh, _ := m.Get(1)
	if fresh.History[0] != "n1" {
		t.Fatal("Get leaked internal slice")
	}
}

func TestMemory_Sweep(t *testing.T) {
	m := NewMemory()
	base := time.Now()
	m.now = func() time.Time { return base }
	m.PushHistory(1, "n1")
	m.PushHistory(2, "n1")

	m.now = func() time.Time { return base.Add(time.Hour) }
	m.PushHistory(2, "n2") // keeps chat 2 fresh

	m.now = func() time.Time { return base.Add(90 * time.Minute) }
	if removed := m.Sweep(time.Hour); removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, ok := m.Get(1); ok {
		t.Fatal("idle session survived sweep")
	}
	if _, ok := m.Get(2); !ok {
		t.Fatal("fresh session swept")
	}
}

func TestBoundCache_EvictsLRU(t *testing.T) {
	c := NewBoundCache(2)
	c.Set(1, 10, State{FaultID: "a"})
	c.Set(1, 11, State{FaultID: "b"})
	c.Get(1, 10) // touch 10 so 11 is the eviction victim
	c.Set(1, 12, State{FaultID: "c"})

	if _, ok := c.Get(1, 11); ok {
		t.Fatal("LRU entry survived")
	}
	if _, ok := c.Get(1, 10); !ok {
		t.Fatal("recently used entry evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestBoundCache_SetRefreshesExisting(t *testing.T) {
	c := NewBoundCache(2)
	c.Set(1, 10, State{FaultID: "a"})
	c.Set(1, 10, State{FaultID: "b"})
	st, ok := c.Get(1, 10)
	if !ok || st.FaultID != "b" {
		t.Fatalf("state = %+v, %v", st, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestCurrentNode(t *testing.T) {
	tree := &schema.DecisionTree{Start: "n1", Nodes: map[string]schema.DecisionNode{}}
	if got := (State{}).CurrentNode(tree); got != "n1" {
		t.Errorf("empty history current = %q", got)
	}
	if got := (State{History: []string{"n1", "n5"}}).CurrentNode(tree); got != "n5" {
		t.Errorf("current = %q", got)
	}
}
