package models

import (
	"net/url"
	"sort"
	"time"
)

// Fields maps a form key to its posted value.
type Fields map[string]Value

func (f Fields) Text(key string) string {
	if f == nil {
		return ""
	}
	return f[key].String()
}

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		if v.Multi {
			v = List(v.Strings()...)
		}
		out[k] = v
	}
	return out
}

// Keys returns the field keys in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Submission is one persisted questionnaire answer set. Fields holds the keys the
// schema knows about; Extra captures anything else that was posted.
type Submission struct {
	ID          string     `json:"id"`
	Form        string     `json:"form"`
	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Fields      Fields     `json:"fields"`
	Extra       Fields     `json:"extra,omitempty"`
}

// Lookup finds key in Fields, then in Extra.
func (s Submission) Lookup(key string) (Value, bool) {
	if v, ok := s.Fields[key]; ok {
		return v, true
	}
	if v, ok := s.Extra[key]; ok {
		return v, true
	}
	return Value{}, false
}

func (s Submission) Text(key string) string {
	v, _ := s.Lookup(key)
	return v.String()
}

// Values flattens fields and extras back into posted form values.
func (s Submission) Values() url.Values {
	out := url.Values{}
	for k, v := range s.Extra {
		out[k] = v.Strings()
	}
	for k, v := range s.Fields {
		out[k] = v.Strings()
	}
	return out
}
