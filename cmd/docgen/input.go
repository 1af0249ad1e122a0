package main

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

// intakeFile is the on-disk shape of a set of answers:
//
//	form: presales
//	submitted_at: 2026-10-19T14:05:00Z
//	fields:
//	  customer_name: Diamondback Energy
//	  regions: [EMEA, APAC]
type intakeFile struct {
	Form        string                 `yaml:"form"`
	SubmittedAt *time.Time             `yaml:"submitted_at"`
	Fields      map[string]interface{} `yaml:"fields"`
}

func readIntake(path string) (intakeFile, error) {
	var in intakeFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("decode %s: %w", path, err)
	}
	if in.Form == "" {
		in.Form = schema.Presales
	}
	return in, nil
}

// values flattens the YAML fields into posted form values.
func (in intakeFile) values() (url.Values, error) {
	keys := make([]string, 0, len(in.Fields))
	for k := range in.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := url.Values{}
	for _, k := range keys {
		switch v := in.Fields[k].(type) {
		case nil:
		case []interface{}:
			for _, item := range v {
				s, err := scalar(k, item)
				if err != nil {
					return nil, err
				}
				out.Add(k, s)
			}
		default:
			s, err := scalar(k, v)
			if err != nil {
				return nil, err
			}
			out.Set(k, s)
		}
	}
	return out, nil
}

func scalar(key string, v interface{}) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), nil
	case time.Time:
		return v.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("field %s: unsupported value %T", key, v)
}

// record normalises the file into a submission. Without submitted_at the
// record is stamped with now.
func (a *app) record(path string, validate bool, now time.Time) (models.Submission, error) {
	in, err := readIntake(path)
	if err != nil {
		return models.Submission{}, err
	}
	sc, ok := a.schemas.Get(in.Form)
	if !ok {
		return models.Submission{}, fmt.Errorf("unknown form %q (have %v)", in.Form, a.schemas.Names())
	}
	values, err := in.values()
	if err != nil {
		return models.Submission{}, err
	}
	rec, err := intake.Normalize(sc, values, intake.Options{SkipValidation: !validate})
	if err != nil {
		return models.Submission{}, err
	}
	rec.SubmittedAt = now.UTC()
	if in.SubmittedAt != nil {
		rec.SubmittedAt = in.SubmittedAt.UTC()
	}
	return rec, nil
}
