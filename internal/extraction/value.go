package extraction

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Num is a permissively-parsed numeric field. Upstream extraction emits
// absent, null, numeric, quoted-numeric, and garbage values for the same
// field across documents; Num absorbs all of them without failing so the
// validator can inspect what actually arrived.
type Num struct {
	Present  bool
	IsNumber bool
	Value    float64
	Raw      string
}

// NumOf returns a present, numeric Num. Used by tests and edit round-trips.
func NumOf(v float64) Num {
	return Num{Present: true, IsNumber: true, Value: v}
}

// Float returns the numeric value and whether one is available.
func (n Num) Float() (float64, bool) {
	if !n.Present || !n.IsNumber {
		return 0, false
	}
	return n.Value, true
}

// UnmarshalJSON never fails: null clears presence, numbers and numeric
// strings parse, anything else is retained raw for the type-check pass.
func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Num{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Num{Present: true, IsNumber: true, Value: f}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Num{Present: true, IsNumber: true, Value: f, Raw: s}
			return nil
		}
		*n = Num{Present: true, Raw: s}
		return nil
	}

	*n = Num{Present: true, Raw: string(data)}
	return nil
}

// MarshalJSON writes the numeric value, the raw text for non-numeric
// values, or null when absent.
func (n Num) MarshalJSON() ([]byte, error) {
	switch {
	case !n.Present:
		return []byte("null"), nil
	case n.IsNumber:
		return json.Marshal(n.Value)
	default:
		return json.Marshal(n.Raw)
	}
}

// Text is a permissively-parsed string field. Scalar values are coerced to
// their literal text; structured values count as absent.
type Text struct {
	Present bool
	Value   string
}

// TextOf returns a present Text.
func TextOf(s string) Text {
	return Text{Present: true, Value: s}
}

// Empty reports whether the field is absent or blank.
func (t Text) Empty() bool {
	return !t.Present || strings.TrimSpace(t.Value) == ""
}

// UnmarshalJSON never fails: strings pass through, numbers and booleans
// are stringified, null/objects/arrays clear presence.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Text{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text{Present: true, Value: s}
		return nil
	}

	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		*t = Text{}
		return nil
	}

	*t = Text{Present: true, Value: string(data)}
	return nil
}

// MarshalJSON writes the text or null when absent.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Present {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}
