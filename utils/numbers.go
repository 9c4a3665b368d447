package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// NormalizeNumber turns json.Number (and float64 holding a whole value)
// into int64, other json.Numbers into float64, and walks maps and slices.
// Values of any other type come back unchanged.
func NormalizeNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, err := n.Float64()
		if err != nil {
			return n.String()
		}
		return NormalizeNumber(f)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case int:
		return int64(n)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, val := range n {
			out[k] = NormalizeNumber(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, val := range n {
			out[i] = NormalizeNumber(val)
		}
		return out
	}
	return v
}

// FlexString decodes from either a JSON string or a JSON number, so "42"
// and 42 are the same identifier.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string { return string(s) }
