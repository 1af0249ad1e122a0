// Package intake turns posted form values into a normalised submission.
package intake

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

// Control keys are posted by the forms but are not answers.
var controlKeys = map[string]bool{
	schema.ScopeKey: true,
	"action":        true,
	"submit":        true,
}

type Options struct {
	// MultiSite is read from pod_scope when not set.
	MultiSite *bool
	// SkipValidation normalises without checking required fields or percent groups.
	SkipValidation bool
}

type FieldError struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in one submission.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Key+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields maps form keys to messages, the shape the JSON API returns.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Problems))
	for _, p := range e.Problems {
		out[p.Key] = p.Message
	}
	return out
}

func (e *ValidationError) add(key, label, msg string) {
	e.Problems = append(e.Problems, FieldError{Key: key, Label: label, Message: msg})
}

// IsMulti reports whether the posted values select two sites.
func IsMulti(values url.Values) bool {
	return strings.EqualFold(strings.TrimSpace(values.Get(schema.ScopeKey)), "multi")
}

// Normalize builds a submission for s from values. The returned record carries
// every slot key of the form (defaulted where absent) and keeps unknown keys in
// Extra. ID and timestamps are left for the store.
func Normalize(s *schema.Schema, values url.Values, opts Options) (models.Submission, error) {
	multi := IsMulti(values)
	if opts.MultiSite != nil {
		multi = *opts.MultiSite
	}

	rec := models.Submission{Form: s.Name, Fields: models.Fields{}}
	known := map[string]bool{}
	verr := &ValidationError{}

	for _, slot := range s.Slots(multi) {
		known[slot.Key] = true
		v := normalizeValue(slot.Field, values[slot.Key])
		rec.Fields[slot.Key] = v
		if !opts.SkipValidation && slot.Field.Required && v.IsEmpty() {
			verr.add(slot.Key, slot.Field.Label, "is required")
		}
	}
	if s.HasSites() {
		scope := "single"
		if multi {
			scope = "multi"
		}
		rec.Fields[schema.ScopeKey] = models.Scalar(scope)
	}

	if !opts.SkipValidation {
		checkPercentGroups(s, rec.Fields, verr)
	}

	extraKeys := make([]string, 0)
	for k := range values {
		if known[k] || controlKeys[k] {
			continue
		}
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if rec.Extra == nil {
			rec.Extra = models.Fields{}
		}
		vals := values[k]
		if len(vals) == 1 {
			rec.Extra[k] = models.Scalar(strings.TrimSpace(vals[0]))
		} else {
			rec.Extra[k] = models.List(trimAll(vals)...)
		}
	}

	if len(verr.Problems) > 0 {
		return rec, verr
	}
	return rec, nil
}

func normalizeValue(f schema.FieldDefinition, raw []string) models.Value {
	if f.Type == schema.TypeMultiSelect {
		return models.List(orderOptions(f.Options, raw)...)
	}
	first := ""
	if len(raw) > 0 {
		first = strings.TrimSpace(raw[0])
	}
	if f.Numeric() {
		if first == "" {
			return models.Scalar(f.Default)
		}
		if _, ok := parseNumber(first); !ok {
			return models.Scalar(f.Default)
		}
		return models.Scalar(first)
	}
	if first == "" && f.Default != "" && f.Type == schema.TypeSelect {
		return models.Scalar(f.Default)
	}
	return models.Scalar(first)
}

// orderOptions returns the checked values in option order, then any unknown
// values in posted order. Duplicates and blanks are dropped.
func orderOptions(options, raw []string) []string {
	posted := map[string]bool{}
	for _, r := range raw {
		posted[strings.TrimSpace(r)] = true
	}
	out := []string{}
	seen := map[string]bool{}
	for _, o := range options {
		if posted[o] {
			out = append(out, o)
			seen[o] = true
		}
	}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		out = append(out, r)
		seen[r] = true
	}
	return out
}

func checkPercentGroups(s *schema.Schema, fields models.Fields, verr *ValidationError) {
	for _, g := range s.PercentGroups {
		checked := fields[g.Key]
		var total float64
		anyChecked := false
		for _, m := range g.Members {
			if !checked.Has(m.Option) {
				continue
			}
			anyChecked = true
			total += ParseFloat(fields.Text(m.Key), 0)
		}
		if !anyChecked {
			continue
		}
		if math.Abs(total-100) > 1e-9 {
			label := g.Label
			if label == "" {
				label = g.Key
			}
			verr.add(g.Key, label, fmt.Sprintf("percentages must total 100 (got %s)", strconv.FormatFloat(total, 'f', -1, 64)))
		}
	}
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseFloat reads a loosely formatted number ("1,500", "25%"), returning def
// when it cannot.
func ParseFloat(raw string, def float64) float64 {
	f, ok := parseNumber(raw)
	if !ok {
		return def
	}
	return f
}

// ParseInt truncates toward zero, saturating at the int range.
func ParseInt(raw string, def int) int {
	f, ok := parseNumber(raw)
	if !ok {
		return def
	}
	return ToInt(f)
}

// ToInt truncates f toward zero. Values outside the int range saturate and
// NaN is 0.
func ToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// ValuesFromFields converts a JSON field map into posted form values.
func ValuesFromFields(fields models.Fields) url.Values {
	out := url.Values{}
	for k, v := range fields {
		out[k] = v.Strings()
	}
	return out
}
