package form

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"

	"github.com/tartampluch/go-dob/internal/config"
)

// State is the form-state store the controllers read from and write to.
type State interface {
	Field(name string) (any, bool)
	SetField(name string, value any)
}

// ChangeListener is notified after a field is written.
type ChangeListener func(name string, value any)

// MapState is an in-memory State. It is safe for concurrent use because the
// date picker writes from its own goroutine. The zero value is an empty state.
type MapState struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners []ChangeListener
}

// NewMapState creates a MapState seeded with initial values.
func NewMapState(initial map[string]any) *MapState {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &MapState{values: values}
}

// Field returns the current value of name.
func (s *MapState) Field(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// SetField stores value and notifies listeners outside the lock.
func (s *MapState) SetField(name string, value any) {
	s.mu.Lock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = value
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	slog.Debug(config.MsgFieldChanged,
		config.LogKeyComponent, config.CompForm,
		config.LogKeyField, name,
		config.LogKeyValue, value,
	)
	for _, l := range listeners {
		l(name, value)
	}
}

// OnChange registers a listener for subsequent writes.
func (s *MapState) OnChange(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of all values.
func (s *MapState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// IntField reads name as an integer. Missing fields and the empty value read as zero,
// numeric strings are parsed.
func IntField(s State, name string) (int, error) {
	v, ok := s.Field(name)
	if !ok || v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("%s: %s=%v", config.ErrFieldValue, name, v)
		}
		return int(val), nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == config.EmptyFieldValue {
			return 0, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("%s: %s: %w", config.ErrFieldValue, name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: %s=%T", config.ErrFieldValue, name, v)
	}
}

// BoolField reads name as a boolean; anything but true reads as false.
func BoolField(s State, name string) bool {
	v, ok := s.Field(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
