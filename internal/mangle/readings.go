package mangle

import (
	"context"
	_ "embed"
	"fmt"

	"kwangun/internal/logging"
	"kwangun/internal/sihu"
	"kwangun/internal/store"
	"kwangun/internal/transcribe"
	"kwangun/internal/types"
)

// ReadingSchema declares reading/9, transcription/3, medial/3 and the derived
// homophone/2 and same_rhyme_body/2.
//
//go:embed readings.mg
var ReadingSchema string

// NewReadingEngine returns an engine with the reading schema loaded. A
// non-empty schemaPath replaces the embedded schema.
func NewReadingEngine(cfg Config, schemaPath string) (*Engine, error) {
	e := NewEngine(cfg)
	if schemaPath != "" {
		if err := e.LoadSchema(schemaPath); err != nil {
			return nil, err
		}
		return e, nil
	}
	if err := e.LoadSchemaString(ReadingSchema); err != nil {
		return nil, fmt.Errorf("failed to load reading schema: %w", err)
	}
	return e, nil
}

// ReadingFacts returns the reading, transcription and medial facts for one
// stored reading.
func ReadingFacts(r store.Reading, transcription, medial string) []Fact {
	rec := r.Record
	char := rec.Value(types.FeatureCharName)
	return []Fact{
		{Predicate: "reading", Args: []interface{}{
			r.ID, char,
			rec.Value(types.FeatureOnset),
			rec.Value(types.FeatureHu),
			rec.Value(types.FeatureGrade),
			rec.Value(types.FeatureRhyme),
			rec.Value(types.FeatureTone),
			rec.Value(types.FeatureSection),
			rec.Value(types.FeatureFanqie),
		}},
		{Predicate: "transcription", Args: []interface{}{r.ID, char, transcription}},
		{Predicate: "medial", Args: []interface{}{r.ID, char, medial}},
	}
}

// LoadReadings replaces the engine's facts with those of readings. Every
// reading is derived with d on up to workers goroutines; the rules are
// evaluated once after the bulk insert.
func (e *Engine) LoadReadings(ctx context.Context, readings []store.Reading, d *transcribe.Deriver, workers int) error {
	records := make([]types.Record, len(readings))
	for i, r := range readings {
		records[i] = r.Record
	}
	transcriptions, err := d.DeriveAll(ctx, records, workers)
	if err != nil {
		return err
	}

	facts := make([]Fact, 0, 3*len(readings))
	for i, r := range readings {
		facts = append(facts, ReadingFacts(r, transcriptions[i], sihu.Classify(r.Record))...)
	}

	e.Clear()
	wasAuto := e.AutoEval()
	e.ToggleAutoEval(false)
	defer e.ToggleAutoEval(wasAuto)

	if err := e.AddFacts(facts); err != nil {
		return fmt.Errorf("failed to load reading facts: %w", err)
	}

	if err := e.RecomputeRules(); err != nil {
		return err
	}
	logging.Kernel("loaded %d readings as %d facts", len(readings), len(facts))
	return nil
}
