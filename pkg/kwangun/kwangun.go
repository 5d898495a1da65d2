// Package kwangun is the public shim over the internal derivation packages.
// It re-exports the pure core so that code outside this module can evaluate
// category expressions, resolve rule lists and transcribe readings without
// importing internal packages.
package kwangun

import (
	"kwangun/internal/predicate"
	"kwangun/internal/rules"
	"kwangun/internal/sihu"
	"kwangun/internal/transcribe"
	"kwangun/internal/types"
)

// Re-export core types
type (
	Record    = types.Record
	Feature   = types.Feature
	Evaluator = predicate.Evaluator
	Catalog   = predicate.Catalog
	Expr      = predicate.Expr
	Rule      = rules.Rule
	RuleList  = rules.List
	Table     = rules.Table
	Deriver   = transcribe.Deriver
	Option    = transcribe.Option
	Trace     = transcribe.Trace
)

// Feature keys
const (
	Onset    = types.FeatureOnset
	Hu       = types.FeatureHu
	Grade    = types.FeatureGrade
	Rhyme    = types.FeatureRhyme
	Tone     = types.FeatureTone
	Group    = types.FeatureGroup
	Section  = types.FeatureSection
	Fanqie   = types.FeatureFanqie
	CharName = types.FeatureCharName
)

// Core operations
var (
	NewRecord   = types.NewRecord
	FromStrings = types.FromStrings

	Evaluate     = predicate.Evaluate
	Parse        = predicate.Parse
	NewEvaluator = predicate.New

	Resolve = rules.Resolve

	Derive     = transcribe.Derive
	DeriveAll  = transcribe.DeriveAll
	NewDeriver = transcribe.New

	WithEvaluator = transcribe.WithEvaluator
	WithOnsets    = transcribe.WithOnsets
	WithTones     = transcribe.WithTones
	WithRhymes    = transcribe.WithRhymes

	Classify = sihu.Classify
)

// Built-in rule data, for merging overrides onto
var (
	Onsets          = transcribe.Onsets
	Tones           = transcribe.Tones
	CompositeRhymes = transcribe.CompositeRhymes
	FlatRhymes      = transcribe.FlatRhymes
)

// Four-medial classes
const (
	Open      = sihu.Open
	Even      = sihu.Even
	Closed    = sihu.Closed
	Protruded = sihu.Protruded
)
