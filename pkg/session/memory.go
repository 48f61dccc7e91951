package session

import (
	"sync"
	"time"
)

// Memory is the in-process Store implementation. Entries carry a last-touch
// timestamp so a periodic sweep can drop chats that went idle; sessions have
// no other expiry.
type Memory struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

type entry struct {
	state   State
	touched time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(chatID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[chatID]
	if !ok {
		return State{}, false
	}
	e.touched = m.now()
	return e.state.Clone(), true
}

func (m *Memory) Set(chatID int64, p Patch) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[chatID]
	if !ok {
		e = &entry{state: State{History: []string{}}}
		m.entries[chatID] = e
	}
	if p.Pack != nil {
		e.state.Pack = *p.Pack
	}
	if p.FaultID != nil {
		e.state.FaultID = *p.FaultID
	}
	if p.History != nil {
		e.state.History = append([]string(nil), p.History...)
	}
	if e.state.History == nil {
		e.state.History = []string{}
	}
	if p.ResetAnswers {
		e.state.Answers = nil
	}
	if len(p.Answers) > 0 {
		if e.state.Answers == nil {
			e.state.Answers = make(map[string]string, len(p.Answers))
		}
		for k, v := range p.Answers {
			e.state.Answers[k] = v
		}
	}
	e.touched = m.now()
	return e.state.Clone()
}

func (m *Memory) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, chatID)
}

func (m *Memory) PushHistory(chatID int64, nodeID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[chatID]
	if !ok {
		e = &entry{state: State{History: []string{}}}
		m.entries[chatID] = e
	}
	h := e.state.History
	if len(h) == 0 || h[len(h)-1] != nodeID {
		e.state.History = append(h, nodeID)
	}
	e.touched = m.now()
	return e.state.Clone()
}

func (m *Memory) PopHistory(chatID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[chatID]
	if !ok {
		return "", false
	}
	e.touched = m.now()
	h := e.state.History
	if len(h) <= 1 {
		e.state.History = []string{}
		return "", false
	}
	e.state.History = h[:len(h)-1]
	return e.state.History[len(e.state.History)-1], true
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed. Called on a ticker from the serve loop.
func (m *Memory) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxIdle)
	removed := 0
	for id, e := range m.entries {
		if e.touched.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the current session count, for /debug.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
