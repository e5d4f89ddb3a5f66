// Package schema reads opening hours written as schema.org
// OpeningHoursSpecification data into rule sets.
//
// Accepted inputs are a single specification object, an array of them, or a
// LocalBusiness-style object carrying an "openingHoursSpecification" field.
// JSON input may contain // and /* */ comments and trailing commas.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/openhours/openhours/internal/hours"
)

var (
	ErrNoSpecification = errors.New("no opening hours specification found")

	errDayOfWeek = errors.New("dayOfWeek: expected string or list of strings")
)

// schema.org IRIs that may prefix a weekday name.
var dayPrefixes = []string{
	"https://schema.org/",
	"http://schema.org/",
	"schema:",
}

// stringList decodes either a single string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errDayOfWeek
	}
	*l = many
	return nil
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = stringList{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return errDayOfWeek
	}
	*l = many
	return nil
}

// specification is the wire shape of one OpeningHoursSpecification.
type specification struct {
	Type         string     `json:"@type" yaml:"@type"`
	DayOfWeek    stringList `json:"dayOfWeek" yaml:"dayOfWeek"`
	Opens        string     `json:"opens" yaml:"opens"`
	Closes       string     `json:"closes" yaml:"closes"`
	ValidFrom    string     `json:"validFrom" yaml:"validFrom"`
	ValidThrough string     `json:"validThrough" yaml:"validThrough"`
}

// specList decodes either a single specification or a list of them.
type specList []specification

func (l *specList) UnmarshalJSON(data []byte) error {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		var one specification
		if err := json.Unmarshal(t, &one); err != nil {
			return err
		}
		*l = specList{one}
		return nil
	}
	var many []specification
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func (l *specList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var one specification
		if err := node.Decode(&one); err != nil {
			return err
		}
		*l = specList{one}
		return nil
	}
	var many []specification
	if err := node.Decode(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

type business struct {
	Specifications specList `json:"openingHoursSpecification" yaml:"openingHoursSpecification"`
}

// Parse decodes JSON (or JSONC) opening hours data.
func Parse(data []byte) (hours.RuleSet, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return nil, ErrNoSpecification
	}

	if stripped[0] == '[' {
		var specs []specification
		if err := json.Unmarshal(stripped, &specs); err != nil {
			return nil, fmt.Errorf("parsing opening hours: %w", err)
		}
		return toRules(specs)
	}

	var b business
	if err := json.Unmarshal(stripped, &b); err != nil {
		return nil, fmt.Errorf("parsing opening hours: %w", err)
	}
	if len(b.Specifications) > 0 {
		return toRules(b.Specifications)
	}

	var one specification
	if err := json.Unmarshal(stripped, &one); err != nil {
		return nil, fmt.Errorf("parsing opening hours: %w", err)
	}
	if one.Opens == "" && one.Closes == "" {
		return nil, ErrNoSpecification
	}
	return toRules([]specification{one})
}

// ParseYAML decodes YAML opening hours data of the same shapes as Parse.
func ParseYAML(data []byte) (hours.RuleSet, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing opening hours: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrNoSpecification
	}
	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		var specs []specification
		if err := doc.Decode(&specs); err != nil {
			return nil, fmt.Errorf("parsing opening hours: %w", err)
		}
		return toRules(specs)

	case yaml.MappingNode:
		var b business
		if err := doc.Decode(&b); err != nil {
			return nil, fmt.Errorf("parsing opening hours: %w", err)
		}
		if len(b.Specifications) > 0 {
			return toRules(b.Specifications)
		}
		var one specification
		if err := doc.Decode(&one); err != nil {
			return nil, fmt.Errorf("parsing opening hours: %w", err)
		}
		if one.Opens == "" && one.Closes == "" {
			return nil, ErrNoSpecification
		}
		return toRules([]specification{one})
	}
	return nil, ErrNoSpecification
}

// ReadFile reads a rules file, choosing YAML for .yaml/.yml and JSONC
// otherwise.
func ReadFile(path string) (hours.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rules hours.RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rules, err = ParseYAML(data)
	default:
		rules, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

func toRules(specs []specification) (hours.RuleSet, error) {
	rules := make(hours.RuleSet, 0, len(specs))
	for i, s := range specs {
		if s.Type != "" && s.Type != "OpeningHoursSpecification" {
			return nil, fmt.Errorf("entry %d: unexpected @type %q", i, s.Type)
		}
		r := hours.Rule{
			Opens:        normalizeClock(s.Opens),
			Closes:       normalizeClock(s.Closes),
			ValidFrom:    normalizeDate(s.ValidFrom),
			ValidThrough: normalizeDate(s.ValidThrough),
		}
		for _, d := range s.DayOfWeek {
			r.DayOfWeek = append(r.DayOfWeek, normalizeDay(d))
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// normalizeDay strips a schema.org IRI prefix: "https://schema.org/Monday"
// becomes "Monday".
func normalizeDay(d string) string {
	d = strings.TrimSpace(d)
	for _, p := range dayPrefixes {
		if strings.HasPrefix(d, p) {
			return strings.TrimPrefix(d, p)
		}
	}
	return d
}

// normalizeClock drops a zero seconds field: "08:00:00" becomes "08:00".
// Anything else is passed through for the engine to validate.
func normalizeClock(c string) string {
	c = strings.TrimSpace(c)
	if len(c) == 8 && strings.HasSuffix(c, ":00") {
		return c[:5]
	}
	return c
}

// normalizeDate keeps the calendar part of a date-time: "2025-12-24T00:00"
// becomes "2025-12-24".
func normalizeDate(d string) string {
	d = strings.TrimSpace(d)
	if i := strings.IndexByte(d, 'T'); i == 10 {
		return d[:i]
	}
	return d
}
