// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	// KindText is an opaque column value passed through untouched.
	KindText Kind = iota
	// KindSeconds is a duration in whole seconds.
	KindSeconds
)

// Value is a single cell: either opaque text or a duration in seconds.
// The zero Value is empty text.
type Value struct {
	kind    Kind
	text    string
	seconds int
}

// Text wraps an opaque string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Seconds wraps a duration in whole seconds.
func Seconds(n int) Value { return Value{kind: KindSeconds, seconds: n} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsSeconds reports whether v holds a duration.
func (v Value) IsSeconds() bool { return v.kind == KindSeconds }

// Seconds returns the duration and true when v holds one.
func (v Value) Seconds() (int, bool) {
	if v.kind != KindSeconds {
		return 0, false
	}
	return v.seconds, true
}

// Text returns the raw text for text values and "" otherwise.
func (v Value) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

// String renders durations as decimal seconds and text verbatim.
func (v Value) String() string {
	if v.kind == KindSeconds {
		return strconv.Itoa(v.seconds)
	}
	return v.text
}

// MarshalJSON encodes durations as numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindSeconds {
		return []byte(strconv.Itoa(v.seconds)), nil
	}
	return json.Marshal(v.text)
}
