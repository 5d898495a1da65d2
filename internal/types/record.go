// Package types provides the shared reading record used across kwangun packages.
// This package exists so the predicate, rules, transcribe and store packages can
// exchange records without importing each other.
package types

import (
	"sort"
	"strings"
)

// =============================================================================
// FEATURE KEYS
// =============================================================================

// Feature names one category column of a reading. The key spellings follow the
// column names of the rhyme-table databases the records are imported from.
type Feature string

const (
	FeatureOnset    Feature = "纽"  // onset class (聲紐), e.g. 幫
	FeatureHu       Feature = "呼"  // articulation: 開 or 合
	FeatureGrade    Feature = "等"  // grade: 一 二 三 四
	FeatureRhyme    Feature = "韵"  // rhyme, optionally suffixed with class letter A/B
	FeatureTone     Feature = "声"  // tone: 平 上 去 入
	FeatureGroup    Feature = "组"  // consonant group
	FeatureSection  Feature = "摄"  // rhyme supercategory (攝)
	FeatureFanqie   Feature = "反切" // fanqie spelling
	FeatureCharName Feature = "字"  // the annotated character, never read by the core
)

// Features lists the category keys in canonical order.
var Features = []Feature{
	FeatureOnset,
	FeatureHu,
	FeatureGrade,
	FeatureRhyme,
	FeatureTone,
	FeatureGroup,
	FeatureSection,
	FeatureFanqie,
}

// IsKnown reports whether f is one of the category keys or the character key.
func (f Feature) IsKnown() bool {
	if f == FeatureCharName {
		return true
	}
	for _, k := range Features {
		if k == f {
			return true
		}
	}
	return false
}

// =============================================================================
// RECORD
// =============================================================================

// Record is an immutable set of feature values describing one reading.
// The zero value is an empty record; every lookup on it misses.
type Record struct {
	values map[Feature]string
}

// NewRecord builds a record from a feature map. Empty values are dropped so
// that "" and absent mean the same thing. The input map is copied.
func NewRecord(values map[Feature]string) Record {
	r := Record{values: make(map[Feature]string, len(values))}
	for k, v := range values {
		if v == "" {
			continue
		}
		r.values[k] = v
	}
	return r
}

// FromStrings builds a record from plain string keys, as decoded from YAML or
// database rows. Unknown keys are kept; predicates simply never look at them.
func FromStrings(values map[string]string) Record {
	m := make(map[Feature]string, len(values))
	for k, v := range values {
		m[Feature(k)] = v
	}
	return NewRecord(m)
}

// Get returns the value for f and whether it is present.
func (r Record) Get(f Feature) (string, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Value returns the value for f or "" when absent.
func (r Record) Value(f Feature) string {
	return r.values[f]
}

// Has reports whether f is present.
func (r Record) Has(f Feature) bool {
	_, ok := r.values[f]
	return ok
}

// With returns a copy of r with f set to v. Setting "" removes the feature.
func (r Record) With(f Feature, v string) Record {
	m := r.Map()
	m[f] = v
	return NewRecord(m)
}

// Map returns a copy of the record's values.
func (r Record) Map() map[Feature]string {
	m := make(map[Feature]string, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Strings returns a copy of the values keyed by plain strings.
func (r Record) Strings() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		m[string(k)] = v
	}
	return m
}

// Len returns the number of present features.
func (r Record) Len() int {
	return len(r.values)
}

// Equal reports value equality.
func (r Record) Equal(o Record) bool {
	if len(r.values) != len(o.values) {
		return false
	}
	for k, v := range r.values {
		if ov, ok := o.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Key returns a canonical string form usable as a map key.
func (r Record) Key() string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(r.values[Feature(k)])
	}
	return sb.String()
}

// String renders the record in canonical key order, e.g. "纽=幫 呼=合 等=三".
func (r Record) String() string {
	var parts []string
	if c, ok := r.values[FeatureCharName]; ok {
		parts = append(parts, string(FeatureCharName)+"="+c)
	}
	for _, k := range Features {
		if v, ok := r.values[k]; ok {
			parts = append(parts, string(k)+"="+v)
		}
	}
	var extra []string
	for k, v := range r.values {
		if !k.IsKnown() {
			extra = append(extra, string(k)+"="+v)
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), " ")
}

// RhymeBase returns the rhyme with one trailing class letter (A or B) removed.
func (r Record) RhymeBase() string {
	return StripClassLetter(r.values[FeatureRhyme])
}

// StripClassLetter removes a single trailing A or B from a rhyme value.
func StripClassLetter(rhyme string) string {
	if strings.HasSuffix(rhyme, "A") || strings.HasSuffix(rhyme, "B") {
		return rhyme[:len(rhyme)-1]
	}
	return rhyme
}
