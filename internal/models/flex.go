package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var jsonNull = []byte("null")

// FlexNumber decodes a JSON number, a numeric string or null. Present is
// false only for an absent or null field; a non-numeric string is present
// with value 0.
type FlexNumber struct {
	Value   float64
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*n = FlexNumber{}
		return nil
	}
	n.Present = true
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			n.Value = 0
			return nil
		}
		n.Value = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		n.Value = 0
		return nil
	}
	n.Value = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Present {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// FlexString decodes either a JSON string or a number into a string. Used for
// identifiers that some backends send as integers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(string(data))
	return nil
}

// FlexBool decodes true/false, 0/1 and "true"/"false"/"1"/"0".
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}
