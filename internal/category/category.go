// Package category defines the closed set of business categories used for a
// dealer's product mix and the immutable lookup that maps raw product-group
// labels from the sales extract onto them.
package category

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category is one of the five fixed business categories.
type Category int

const (
	Adura Category = iota
	WoodLaminate
	Sundries
	NSResp
	Sheet
)

// Count is the size of the closed category set.
const Count = 5

// All lists the categories in report/column order.
var All = [Count]Category{Adura, WoodLaminate, Sundries, NSResp, Sheet}

var names = [Count]string{"Adura", "Wood & Laminate", "Sundries", "NS & Resp", "Sheet"}

// columns are the snake_case names used by the product_mix_monthly table.
var columns = [Count]string{"adura", "wood_laminate", "sundries", "ns_resp", "sheet"}

// String returns the display name, e.g. "Wood & Laminate".
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return names[c]
}

// Column returns the snake_case column stem, e.g. "wood_laminate".
func (c Category) Column() string {
	if !c.Valid() {
		return ""
	}
	return columns[c]
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool { return c >= 0 && int(c) < Count }

// Parse resolves a display name ("NS & Resp") or column stem ("ns_resp"),
// case-insensitively.
func Parse(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range All {
		if strings.EqualFold(s, names[c]) || strings.EqualFold(s, columns[c]) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Mapping is an immutable product-group → category lookup. The zero value
// maps nothing.
type Mapping struct {
	m map[string]Category
}

// NewMapping copies labels into a Mapping. Keys are normalized the same way
// lookups are, so two keys that normalize identically must agree.
func NewMapping(labels map[string]Category) (Mapping, error) {
	m := make(map[string]Category, len(labels))
	for label, c := range labels {
		if !c.Valid() {
			return Mapping{}, fmt.Errorf("label %q: invalid category %d", label, int(c))
		}
		key := NormalizeLabel(label)
		if key == "" {
			return Mapping{}, fmt.Errorf("empty product group label")
		}
		if prev, ok := m[key]; ok && prev != c {
			return Mapping{}, fmt.Errorf("label %q maps to both %s and %s", key, prev, c)
		}
		m[key] = c
	}
	return Mapping{m: m}, nil
}

// Lookup returns the category for a raw label.
func (mp Mapping) Lookup(label string) (Category, bool) {
	c, ok := mp.m[NormalizeLabel(label)]
	return c, ok
}

// Len returns the number of known labels.
func (mp Mapping) Len() int { return len(mp.m) }

// Labels returns the known labels sorted.
func (mp Mapping) Labels() []string {
	out := make([]string, 0, len(mp.m))
	for k := range mp.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeLabel trims surrounding whitespace, folds non-breaking spaces to
// plain spaces and applies Unicode NFC. Case is preserved.
func NormalizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(norm.NFC.String(s))
}

// Default returns the 18-label table used for the Sales-I monthly extract.
func Default() Mapping {
	mp, err := NewMapping(map[string]Category{
		"MANN. ADURA LUXURY TILE":      Adura,
		"BJELIN":                       WoodLaminate,
		"LAUZON WOOD":                  WoodLaminate,
		"PAD CARPENTER COMPANY":        Sundries,
		"RESPONSIVE INDUSTRIES":        NSResp,
		"SOMERSET WOOD":                WoodLaminate,
		"TITEBOND":                     Sundries,
		"MANN. LAMINATE FLOORING":      WoodLaminate,
		"NORTH STAR FLOORING":          NSResp,
		"PAD FUTURE FOAM":              Sundries,
		"BURKE-MERCER":                 Sundries,
		"MANNINGTON ON MAIN":           Sundries,
		"MANN. RESIDENTIAL VINYL":      Sheet,
		"DIVERSIFIED INDUSTRIES":       Sundries,
		"SUREPLY AND REVOLUTIONS":      Sundries,
		"MANN. WOOD":                   WoodLaminate,
		"MANN. RUBBER":                 Sundries,
		"MANN. COMMERCIAL VINYL & VCT": Sheet,
	})
	if err != nil {
		panic(err)
	}
	return mp
}
