package category

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a mapping from a YAML (or JSON) document of the form
//
//	BJELIN: Wood & Laminate
//	TITEBOND: sundries
//
// Category values accept display names or column stems.
func LoadFile(path string) (Mapping, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping: %w", err)
	}
	return Decode(b)
}

// Decode parses a mapping document already in memory.
func Decode(b []byte) (Mapping, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Mapping{}, fmt.Errorf("decode mapping: %w", err)
	}
	if len(raw) == 0 {
		return Mapping{}, fmt.Errorf("decode mapping: no labels")
	}
	labels := make(map[string]Category, len(raw))
	for label, name := range raw {
		c, err := Parse(name)
		if err != nil {
			return Mapping{}, fmt.Errorf("decode mapping: label %q: %w", label, err)
		}
		labels[label] = c
	}
	return NewMapping(labels)
}
