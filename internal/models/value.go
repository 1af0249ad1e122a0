package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Value is one posted form value: a single string, or an ordered list for
// checkbox groups. It accepts JSON strings, numbers, booleans and arrays of those.
type Value struct {
	Text  string
	List  []string
	Multi bool
}

func Scalar(s string) Value {
	return Value{Text: s}
}

func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{List: items, Multi: true}
}

func (v Value) String() string {
	if v.Multi {
		return strings.Join(v.List, ", ")
	}
	return v.Text
}

func (v Value) IsEmpty() bool {
	if v.Multi {
		return len(v.List) == 0
	}
	return strings.TrimSpace(v.Text) == ""
}

// Strings returns the value in url.Values form.
func (v Value) Strings() []string {
	if v.Multi {
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out
	}
	return []string{v.Text}
}

func (v Value) Has(item string) bool {
	if !v.Multi {
		return v.Text == item
	}
	for _, s := range v.List {
		if s == item {
			return true
		}
	}
	return false
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Multi {
		list := v.List
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if v == nil {
		return fmt.Errorf("Value: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			s, err := flexibleString(r)
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		*v = Value{List: items, Multi: true}
		return nil
	}
	s, err := flexibleString(trimmed)
	if err != nil {
		return err
	}
	*v = Value{Text: s}
	return nil
}

func flexibleString(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		return num.String(), nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}

	return "", fmt.Errorf("Value: expected string, number, bool or list, got %s", string(data))
}
