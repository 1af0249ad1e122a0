// Package schema holds the static questionnaire definitions. Schemas are built
// once at startup and never mutated afterwards.
package schema

import (
	"fmt"
	"strings"
)

type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeSelect      FieldType = "select"
	TypeMultiSelect FieldType = "multiselect"
	TypeNumber      FieldType = "number"
	TypePercent     FieldType = "percent"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeSelect, TypeMultiSelect, TypeNumber, TypePercent:
		return true
	}
	return false
}

type Scope string

const (
	ScopeGlobal Scope = "global"
	// ScopeSite fields are asked once per site (pod).
	ScopeSite Scope = "per-site"
	// ScopeMultiSite fields only exist when two sites are in scope.
	ScopeMultiSite Scope = "multi-site"
)

func (s Scope) valid() bool {
	return s == ScopeGlobal || s == ScopeSite || s == ScopeMultiSite
}

// Group ids used by Slots and Layout.
const (
	GroupGlobal = "global"
	GroupSite1  = "site1"
	GroupSite2  = "site2"
	GroupMulti  = "multi"
)

// ScopeKey is the posted control field selecting single or multi site.
const ScopeKey = "pod_scope"

type FieldDefinition struct {
	Section  string    `yaml:"section" json:"section"`
	Key      string    `yaml:"key" json:"key"`
	Label    string    `yaml:"label" json:"label"`
	Type     FieldType `yaml:"type" json:"type"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Scope    Scope     `yaml:"scope" json:"scope"`
	Default  string    `yaml:"default,omitempty" json:"default,omitempty"`
	Help     string    `yaml:"help,omitempty" json:"help,omitempty"`
}

func (f FieldDefinition) Numeric() bool {
	return f.Type == TypeNumber || f.Type == TypePercent
}

// PercentMember ties one option of a multiselect to the field holding its share.
type PercentMember struct {
	Option string `yaml:"option" json:"option"`
	Key    string `yaml:"key" json:"key"`
}

// PercentGroup is a breakdown whose checked members must add up to 100.
type PercentGroup struct {
	Key     string          `yaml:"key" json:"key"`
	Label   string          `yaml:"label" json:"label"`
	Members []PercentMember `yaml:"members" json:"members"`
}

type Schema struct {
	Name      string
	Title     string
	SiteLabel string
	// Prefixed schemas post keys as global_<key>, pod1_<key>, pod2_<key>.
	Prefixed         bool
	MultiSiteHeading string
	Fields           []FieldDefinition
	PercentGroups    []PercentGroup

	index map[string]int
}

// Slot is a field placed in a group, with the form key it is posted under.
type Slot struct {
	Group string
	Key   string
	Field FieldDefinition
}

type Section struct {
	Name   string
	Fields []FieldDefinition
}

type SlotSection struct {
	Name  string
	Slots []Slot
}

type SlotGroup struct {
	ID       string
	Heading  string
	Sections []SlotSection
}

// New validates fields and groups and indexes the schema.
func New(s Schema) (*Schema, error) {
	if strings.TrimSpace(s.Name) == "" {
		return nil, fmt.Errorf("schema: name is required")
	}
	if s.SiteLabel == "" {
		s.SiteLabel = "Site"
	}
	s.Fields = append([]FieldDefinition(nil), s.Fields...)
	s.PercentGroups = append([]PercentGroup(nil), s.PercentGroups...)
	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.Key == "" {
			return nil, fmt.Errorf("schema %s: field %d has no key", s.Name, i)
		}
		if _, dup := s.index[f.Key]; dup {
			return nil, fmt.Errorf("schema %s: duplicate key %q", s.Name, f.Key)
		}
		if f.Type == "" {
			f.Type = TypeText
		}
		if !f.Type.valid() {
			return nil, fmt.Errorf("schema %s: field %q has unknown type %q", s.Name, f.Key, f.Type)
		}
		if f.Scope == "" {
			f.Scope = ScopeGlobal
		}
		if !f.Scope.valid() {
			return nil, fmt.Errorf("schema %s: field %q has unknown scope %q", s.Name, f.Key, f.Scope)
		}
		if f.Label == "" {
			f.Label = f.Key
		}
		s.Fields[i] = f
		s.index[f.Key] = i
	}
	for _, g := range s.PercentGroups {
		parent, ok := s.index[g.Key]
		if !ok || s.Fields[parent].Type != TypeMultiSelect {
			return nil, fmt.Errorf("schema %s: percent group %q needs a multiselect field", s.Name, g.Key)
		}
		for _, m := range g.Members {
			if _, ok := s.index[m.Key]; !ok {
				return nil, fmt.Errorf("schema %s: percent group %q references unknown key %q", s.Name, g.Key, m.Key)
			}
		}
	}
	out := s
	return &out, nil
}

func (s *Schema) Field(key string) (FieldDefinition, bool) {
	i, ok := s.index[key]
	if !ok {
		return FieldDefinition{}, false
	}
	return s.Fields[i], true
}

// HasSites reports whether any field is asked per site.
func (s *Schema) HasSites() bool {
	for _, f := range s.Fields {
		if f.Scope == ScopeSite {
			return true
		}
	}
	return false
}

// Groups partitions the fields by scope. site2 is empty unless multiSite.
func (s *Schema) Groups(multiSite bool) (global, site1, site2 []FieldDefinition) {
	global = []FieldDefinition{}
	site1 = []FieldDefinition{}
	site2 = []FieldDefinition{}
	for _, f := range s.Fields {
		switch f.Scope {
		case ScopeGlobal:
			global = append(global, f)
		case ScopeSite:
			site1 = append(site1, f)
			if multiSite {
				site2 = append(site2, f)
			}
		}
	}
	return global, site1, site2
}

// MultiSite returns the fields that only apply when two sites are in scope.
func (s *Schema) MultiSite() []FieldDefinition {
	var out []FieldDefinition
	for _, f := range s.Fields {
		if f.Scope == ScopeMultiSite {
			out = append(out, f)
		}
	}
	return out
}

func (s *Schema) prefix(group string) string {
	if !s.Prefixed {
		return ""
	}
	switch group {
	case GroupGlobal:
		return "global"
	case GroupSite1:
		return "pod1"
	case GroupSite2:
		return "pod2"
	}
	return ""
}

func FormKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// Slots lists every field a form posts, in rendering order.
func (s *Schema) Slots(multiSite bool) []Slot {
	var out []Slot
	for _, g := range s.Layout(multiSite) {
		for _, sec := range g.Sections {
			out = append(out, sec.Slots...)
		}
	}
	return out
}

// Layout groups slots for rendering: global, site 1, site 2, then multi-site.
func (s *Schema) Layout(multiSite bool) []SlotGroup {
	global, site1, site2 := s.Groups(multiSite)
	var groups []SlotGroup
	add := func(id, heading string, fields []FieldDefinition) {
		if len(fields) == 0 {
			return
		}
		g := SlotGroup{ID: id, Heading: heading}
		for _, sec := range Sections(fields) {
			ss := SlotSection{Name: sec.Name}
			for _, f := range sec.Fields {
				ss.Slots = append(ss.Slots, Slot{Group: id, Key: FormKey(s.prefix(id), f.Key), Field: f})
			}
			g.Sections = append(g.Sections, ss)
		}
		groups = append(groups, g)
	}
	globalHeading := ""
	if s.HasSites() {
		globalHeading = "Global"
	}
	add(GroupGlobal, globalHeading, global)
	add(GroupSite1, s.SiteLabel+" 1", site1)
	add(GroupSite2, s.SiteLabel+" 2", site2)
	if multiSite {
		heading := s.MultiSiteHeading
		if heading == "" {
			heading = "Multi-" + s.SiteLabel
		}
		add(GroupMulti, heading, s.MultiSite())
	}
	return groups
}

// Sections groups fields by section name, keeping first-seen order.
func Sections(fields []FieldDefinition) []Section {
	var out []Section
	pos := map[string]int{}
	for _, f := range fields {
		i, ok := pos[f.Section]
		if !ok {
			pos[f.Section] = len(out)
			out = append(out, Section{Name: f.Section})
			i = len(out) - 1
		}
		out[i].Fields = append(out[i].Fields, f)
	}
	return out
}

// Registry holds the schemas by name.
type Registry struct {
	schemas map[string]*Schema
	order   []string
}

func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: map[string]*Schema{}}
	for _, s := range schemas {
		r.put(s)
	}
	return r
}

func (r *Registry) put(s *Schema) {
	if _, ok := r.schemas[s.Name]; !ok {
		r.order = append(r.order, s.Name)
	}
	r.schemas[s.Name] = s
}

func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
