package form

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/muurk/bhkiosk/internal/validation"
)

// ErrUnknownField is returned when a field name is not part of the form.
var ErrUnknownField = errors.New("unknown field")

// Spec is the static description of one form field.
type Spec struct {
	Name        string          // Key used in the record and in the request body
	Label       string          // Text shown next to the input
	Kind        validation.Kind // Sanitization rule
	MaxLength   int             // Maximum input length in runes (0 = unlimited)
	Required    bool            // Must be non-empty to submit
	Min         int             // Lower bound for Numeric fields (0 = none)
	Placeholder string          // Hint shown while the field is empty
}

// Record maps field names to their current sanitized values.
type Record map[string]string

// Store holds the values and error flags of one wizard step.
// All mutation goes through the validation package.
type Store struct {
	mu     sync.RWMutex
	specs  []Spec
	index  map[string]int
	values map[string]string
	errors map[string]bool
}

// New creates a store for the given fields. Text fields start empty,
// numeric fields start at "0", and no field is flagged.
func New(specs ...Spec) *Store {
	s := &Store{
		specs:  append([]Spec(nil), specs...),
		index:  make(map[string]int, len(specs)),
		values: make(map[string]string, len(specs)),
		errors: make(map[string]bool, len(specs)),
	}
	for i, spec := range s.specs {
		s.index[spec.Name] = i
		s.values[spec.Name] = initialValue(spec)
		s.errors[spec.Name] = false
	}
	return s
}

func initialValue(spec Spec) string {
	if spec.Kind == validation.Numeric {
		return "0"
	}
	return ""
}

// SetField stores the sanitized form of value and recomputes the field's
// error flag. Input longer than MaxLength is truncated first; for phone and
// digit fields the digits are extracted before truncating.
func (s *Store) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	v, valid := check(s.specs[i], value)
	s.values[name] = v
	s.errors[name] = !valid
	return nil
}

// Check runs value through the field's rule without storing it. The result
// is what SetField would store; valid also covers a missing required value.
func (s *Store) Check(name, value string) (clean string, valid bool, err error) {
	spec, ok := s.Spec(name)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	clean, valid = check(spec, value)
	if spec.Required && clean == "" {
		valid = false
	}
	return clean, valid, nil
}

// Field returns the current value of a field, or "" if it does not exist.
func (s *Store) Field(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name]
}

// Int returns a field's value as an integer, 0 when it is not numeric.
func (s *Store) Int(name string) int {
	n, err := strconv.Atoi(s.Field(name))
	if err != nil {
		return 0
	}
	return n
}

// HasError reports whether the field is currently flagged invalid.
func (s *Store) HasError(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors[name]
}

// Errors returns a copy of the error map.
func (s *Store) Errors() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Record returns a copy of the current values.
func (s *Store) Record() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Record, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Specs returns the field specs in form order.
func (s *Store) Specs() []Spec {
	return append([]Spec(nil), s.specs...)
}

// Spec looks up a single field spec.
func (s *Store) Spec(name string) (Spec, bool) {
	i, ok := s.index[name]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// Names returns the field names in form order.
func (s *Store) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// AllValid reports whether no field is flagged and every required field
// has a value.
func (s *Store) AllValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, spec := range s.specs {
		if s.errors[spec.Name] {
			return false
		}
		if spec.Required && s.values[spec.Name] == "" {
			return false
		}
	}
	return true
}

// Invalid returns the names of fields that block submission, in form
// order, without changing the store. A field blocks when it is flagged,
// when a required value is missing, or when its value fails the field's
// rule (an untouched capacity of zero, for example).
func (s *Store) Invalid() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var invalid []string
	for _, spec := range s.specs {
		if s.blocks(spec) {
			invalid = append(invalid, spec.Name)
		}
	}
	return invalid
}

// Revalidate flags every field Invalid reports and returns their names.
// Flags are only ever added; values are left untouched.
func (s *Store) Revalidate() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invalid []string
	for _, spec := range s.specs {
		if s.blocks(spec) {
			s.errors[spec.Name] = true
			invalid = append(invalid, spec.Name)
		}
	}
	return invalid
}

// blocks must be called with s.mu held.
func (s *Store) blocks(spec Spec) bool {
	v := s.values[spec.Name]
	if s.errors[spec.Name] || (spec.Required && v == "") {
		return true
	}
	_, valid := check(spec, v)
	return !valid
}

// Reset returns every field to its initial value and clears all flags.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spec := range s.specs {
		s.values[spec.Name] = initialValue(spec)
		s.errors[spec.Name] = false
	}
}

func check(spec Spec, raw string) (string, bool) {
	var v string
	var ok bool
	if digitsOnly(spec.Kind) {
		// Separators typed between digits do not count towards the limit
		v, ok = validation.Validate(spec.Kind, raw)
		if t := truncate(v, spec.MaxLength); t != v {
			v = t
			if spec.Kind == validation.Phone {
				_, ok = validation.Validate(spec.Kind, v)
			}
		}
	} else {
		v, ok = validation.Validate(spec.Kind, truncate(raw, spec.MaxLength))
	}
	if ok && spec.Kind == validation.Numeric && spec.Min != 0 {
		n, _ := strconv.Atoi(v)
		ok = n >= spec.Min
	}
	return v, ok
}

func digitsOnly(kind validation.Kind) bool {
	return kind == validation.Phone || kind == validation.Digits
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
