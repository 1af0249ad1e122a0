package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var csvHeader = []string{"section", "key", "label", "type", "options", "required", "scope", "default"}

// ReadCSV parses a field table. Options are "|" separated; required accepts
// true/false/yes/no/1/0.
func ReadCSV(r io.Reader) ([]FieldDefinition, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["key"]; !ok {
		return nil, fmt.Errorf("header needs a key column, want %s", strings.Join(csvHeader, ","))
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var fields []FieldDefinition
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if get(rec, "key") == "" {
			continue
		}
		required, err := parseBool(get(rec, "required"))
		if err != nil {
			return nil, fmt.Errorf("line %d: required: %w", line, err)
		}
		f := FieldDefinition{
			Section:  get(rec, "section"),
			Key:      get(rec, "key"),
			Label:    get(rec, "label"),
			Type:     FieldType(strings.ToLower(get(rec, "type"))),
			Required: required,
			Scope:    parseScope(get(rec, "scope")),
			Default:  get(rec, "default"),
		}
		if opts := get(rec, "options"); opts != "" {
			for _, o := range strings.Split(opts, "|") {
				if o = strings.TrimSpace(o); o != "" {
					f.Options = append(f.Options, o)
				}
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n":
		return false, nil
	case "yes", "y":
		return true, nil
	}
	return strconv.ParseBool(s)
}

// parseScope also accepts the legacy "both" marker for per-site fields.
func parseScope(s string) Scope {
	switch strings.ToLower(s) {
	case "both", "pod", "site", "per-site", "per_site":
		return ScopeSite
	case "multi", "multi-site", "multi_site", "gslb":
		return ScopeMultiSite
	case "":
		return ""
	}
	return Scope(strings.ToLower(s))
}

type yamlSchema struct {
	Title            string            `yaml:"title"`
	SiteLabel        string            `yaml:"site_label"`
	Prefixed         bool              `yaml:"prefixed"`
	MultiSiteHeading string            `yaml:"multi_site_heading"`
	Fields           []FieldDefinition `yaml:"fields"`
	PercentGroups    []PercentGroup    `yaml:"percent_groups"`
}

// ReadYAML decodes a full schema document.
func ReadYAML(name string, r io.Reader) (*Schema, error) {
	var doc yamlSchema
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	for i := range doc.Fields {
		doc.Fields[i].Scope = parseScope(string(doc.Fields[i].Scope))
	}
	return New(Schema{
		Name:             name,
		Title:            doc.Title,
		SiteLabel:        doc.SiteLabel,
		Prefixed:         doc.Prefixed,
		MultiSiteHeading: doc.MultiSiteHeading,
		Fields:           doc.Fields,
		PercentGroups:    doc.PercentGroups,
	})
}

// LoadDir overrides schemas of base with <name>.yaml or <name>.csv files found
// in dir. A CSV file only replaces the field list; title, labels and percent
// groups whose keys survive are kept from the base schema.
func LoadDir(dir string, base *Registry) (*Registry, error) {
	out := NewRegistry()
	for _, name := range base.Names() {
		cur, _ := base.Get(name)
		next, err := loadOne(dir, cur)
		if err != nil {
			return nil, err
		}
		out.put(next)
	}
	return out, nil
}

func loadOne(dir string, cur *Schema) (*Schema, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, cur.Name+ext)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		s, err := ReadYAML(cur.Name, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	}

	path := filepath.Join(dir, cur.Name+".csv")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cur, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fields, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	next := *cur
	next.Fields = fields
	next.PercentGroups = nil
	keys := map[string]bool{}
	for _, fd := range fields {
		keys[fd.Key] = true
	}
	for _, g := range cur.PercentGroups {
		if keys[g.Key] {
			next.PercentGroups = append(next.PercentGroups, g)
		}
	}
	s, err := New(next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteYAML encodes s in the document shape ReadYAML accepts.
func WriteYAML(w io.Writer, s *Schema) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlSchema{
		Title:            s.Title,
		SiteLabel:        s.SiteLabel,
		Prefixed:         s.Prefixed,
		MultiSiteHeading: s.MultiSiteHeading,
		Fields:           s.Fields,
		PercentGroups:    s.PercentGroups,
	}); err != nil {
		return fmt.Errorf("encode %s: %w", s.Name, err)
	}
	return enc.Close()
}
