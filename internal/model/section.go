package model

import (
	"bytes"
	"encoding/json"
)

// Section is a school or report profile section that is either recorded or
// absent. Scorers read sections through Get or OrZero, so an absent section
// always resolves to the zero value of its record and therefore to the
// lowest-maturity branch of every ladder.
type Section[T any] struct {
	value T
	set   bool
}

// Some returns a recorded section holding v.
func Some[T any](v T) Section[T] {
	return Section[T]{value: v, set: true}
}

// Get returns the section value and whether it was recorded.
func (s Section[T]) Get() (T, bool) {
	return s.value, s.set
}

// OrZero returns the recorded value, or the zero value of T when absent.
func (s Section[T]) OrZero() T {
	return s.value
}

// IsSet reports whether the section was recorded.
func (s Section[T]) IsSet() bool {
	return s.set
}

// IsZero reports whether the section is absent. It lets `omitzero` drop
// absent sections from JSON output.
func (s Section[T]) IsZero() bool {
	return !s.set
}

// MarshalJSON encodes an absent section as null.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON treats null as absent and any other value as recorded.
// Unknown keys inside the section are rejected, whatever the outer decoder
// allows.
func (s *Section[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Section[T]{}
		return nil
	}
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*s = Some(v)
	return nil
}
