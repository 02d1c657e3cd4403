// Package result holds benchmark measurements in insertion order and
// derives overhead-free values from their baselines.
package result

import (
	"encoding/json"
	"fmt"
)

// Measurement is the mean cost of one benchmark in microseconds per
// callback. BaseName, when set, names the measurement in the same Set that
// carries the harness overhead shared with this one.
type Measurement struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	BaseName *string `json:"base_name"`
	Invalid  bool    `json:"invalid,omitempty"`
}

// HasBase reports whether the measurement references a baseline.
func (m Measurement) HasBase() bool {
	return m.BaseName != nil && *m.BaseName != ""
}

// Base returns the baseline name, or "" when there is none.
func (m Measurement) Base() string {
	if m.BaseName == nil {
		return ""
	}

	return *m.BaseName
}

// BaseRef returns a BaseName value for name; an empty name means no base.
func BaseRef(name string) *string {
	if name == "" {
		return nil
	}

	return &name
}

// Set is an ordered collection of measurements keyed by unique name.
type Set struct {
	names  []string
	byName map[string]Measurement
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{byName: make(map[string]Measurement)}
}

// Add appends m. A name already present is a configuration error and
// leaves the set unchanged.
func (s *Set) Add(m Measurement) error {
	if _, ok := s.byName[m.Name]; ok {
		return fmt.Errorf("%w: duplicate result name %q", ErrConfiguration, m.Name)
	}

	s.names = append(s.names, m.Name)
	s.byName[m.Name] = m

	return nil
}

// Get returns the measurement stored under name.
func (s *Set) Get(name string) (Measurement, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// Names returns measurement names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)

	return out
}

// Len returns the number of measurements.
func (s *Set) Len() int { return len(s.names) }

// All returns the measurements in insertion order.
func (s *Set) All() []Measurement {
	out := make([]Measurement, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.byName[name])
	}

	return out
}

// Delta returns the named measurement's value minus its baseline's value,
// the estimated cost of the feature under test net of harness overhead.
func (s *Set) Delta(name string) (float64, error) {
	m, ok := s.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: no result named %q", ErrConfiguration, name)
	}

	if !m.HasBase() {
		return 0, fmt.Errorf("%s: %w", name, ErrNoBaseline)
	}

	base, ok := s.byName[*m.BaseName]
	if !ok {
		return 0, fmt.Errorf("%w: %s references missing baseline %q",
			ErrConfiguration, name, *m.BaseName)
	}

	return m.Value - base.Value, nil
}

// Validate checks that every base name resolves within the set.
func (s *Set) Validate() error {
	for _, name := range s.names {
		m := s.byName[name]
		if !m.HasBase() {
			continue
		}

		if _, ok := s.byName[*m.BaseName]; !ok {
			return fmt.Errorf("%w: %s references missing baseline %q",
				ErrConfiguration, name, *m.BaseName)
		}
	}

	return nil
}

// MarshalJSON encodes the set as an array in insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.All())
}

// record is the on-disk form of a Measurement. Pointers distinguish a
// missing key from a zero value.
type record struct {
	Name     *string  `json:"name"`
	Value    *float64 `json:"value"`
	BaseName *string  `json:"base_name"`
	Invalid  bool     `json:"invalid,omitempty"`
}

// UnmarshalJSON replaces the set's contents with the decoded array.
// Records without a name or value are rejected, as are duplicate names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var list []record
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}

	fresh := NewSet()
	for i, r := range list {
		if r.Name == nil || *r.Name == "" {
			return fmt.Errorf("%w: record %d has no name", ErrSerialization, i)
		}
		if r.Value == nil {
			return fmt.Errorf("%w: record %d (%s) has no value", ErrSerialization, i, *r.Name)
		}

		m := Measurement{
			Name:     *r.Name,
			Value:    *r.Value,
			BaseName: r.BaseName,
			Invalid:  r.Invalid,
		}
		if err := fresh.Add(m); err != nil {
			return err
		}
	}

	*s = *fresh

	return nil
}
