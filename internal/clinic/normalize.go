package clinic

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ListSeparator joins multi-valued upstream fields into one display string.
const ListSeparator = ", "

//go:embed fields.yaml
var defaultFieldsYAML []byte

// FieldSpec lists the upstream column names accepted for one canonical
// field, in priority order, and the value used when none is present.
type FieldSpec struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Default string   `yaml:"default"`
}

// canonicalSetters assigns a resolved value to the matching Record field.
var canonicalSetters = map[string]func(*Record, string){
	"name":               func(r *Record, v string) { r.Name = v },
	"city":               func(r *Record, v string) { r.City = v },
	"state":              func(r *Record, v string) { r.State = v },
	"zipCode":            func(r *Record, v string) { r.ZipCode = strings.TrimSpace(v) },
	"phone":              func(r *Record, v string) { r.Phone = v },
	"website":            func(r *Record, v string) { r.Website = v },
	"specialty":          func(r *Record, v string) { r.Specialty = v },
	"servicesOffered":    func(r *Record, v string) { r.ServicesOffered = v },
	"insuranceAccepted":  func(r *Record, v string) { r.InsuranceAccepted = v },
	"clinicType":         func(r *Record, v string) { r.ClinicType = v },
	"classificationNote": func(r *Record, v string) { r.ClassificationNote = v },
}

// ParseFieldSpecs reads a field alias document and checks that it names
// known canonical fields, each once, with at least one alias.
func ParseFieldSpecs(r io.Reader) ([]FieldSpec, error) {
	var doc struct {
		Fields []FieldSpec `yaml:"fields"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse field specs: %w", err)
	}

	seen := make(map[string]bool, len(doc.Fields))
	for _, spec := range doc.Fields {
		if _, ok := canonicalSetters[spec.Name]; !ok {
			return nil, fmt.Errorf("parse field specs: unknown canonical field %q", spec.Name)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("parse field specs: field %q listed twice", spec.Name)
		}
		if len(spec.Aliases) == 0 {
			return nil, fmt.Errorf("parse field specs: field %q has no aliases", spec.Name)
		}
		seen[spec.Name] = true
	}
	return doc.Fields, nil
}

// Normalizer maps raw upstream rows to Records.
type Normalizer struct {
	specs []FieldSpec
}

// NewNormalizer builds a Normalizer from explicit specs.
func NewNormalizer(specs []FieldSpec) *Normalizer {
	return &Normalizer{specs: specs}
}

// DefaultNormalizer uses the embedded alias table.
func DefaultNormalizer() *Normalizer {
	specs, err := ParseFieldSpecs(bytes.NewReader(defaultFieldsYAML))
	if err != nil {
		panic(err)
	}
	return NewNormalizer(specs)
}

// Normalize maps one row. For each canonical field the first alias that
// exists as a key in row wins, even when its value is null or empty; when no
// alias exists the field gets its default.
func (n *Normalizer) Normalize(row map[string]any) Record {
	var rec Record
	for _, spec := range n.specs {
		value := spec.Default
		for _, alias := range spec.Aliases {
			if v, ok := row[alias]; ok {
				value = Stringify(v)
				break
			}
		}
		canonicalSetters[spec.Name](&rec, value)
	}
	return rec
}

// NormalizeAll maps rows in order.
func (n *Normalizer) NormalizeAll(rows []map[string]any) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = n.Normalize(row)
	}
	return out
}

// Stringify flattens an upstream cell value. Lists are joined with
// ListSeparator in source order; null list elements are dropped. Objects
// render as their "name" (Airtable collaborator and linked-record shape) or
// as compact JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ListSeparator)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ListSeparator)
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return name
		}
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
