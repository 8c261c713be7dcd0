package dashboard

import (
	"sync"
	"time"

	"gridScope/internal/model"
)

// Field is one display slot.
type Field struct {
	Value     string    `json:"value"`
	Raw       string    `json:"raw"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State holds the display values. A field only changes when its read succeeds,
// so a failed refresh leaves the previous values in place.
type State struct {
	mu     sync.RWMutex
	fields map[string]Field
}

func NewState() *State {
	return &State{fields: make(map[string]Field)}
}

// Apply copies successful readings into the state and returns how many fields changed.
func (s *State) Apply(snap model.Snapshot) int {
	at := snap.FinishedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, reading := range snap.Readings {
		if reading.Status != model.ReadingOK {
			continue
		}
		s.fields[reading.Field] = Field{Value: reading.Display, Raw: reading.Raw, UpdatedAt: at}
		updated++
	}
	return updated
}

// Merge fills fields that have no value yet, e.g. from values persisted by an earlier run.
func (s *State) Merge(fields map[string]Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, f := range fields {
		if _, ok := s.fields[name]; ok {
			continue
		}
		s.fields[name] = f
	}
}

func (s *State) Get(field string) (Field, bool) {
	s.mu.RLock()
	f, ok := s.fields[field]
	s.mu.RUnlock()
	return f, ok
}

// Fields returns a copy of all display slots.
func (s *State) Fields() map[string]Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Field, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}
