// Package transcribe derives romanized Middle Chinese transcriptions from
// reading records.
//
// A transcription is onset + rhyme body + tone marker. The onset and tone come
// from flat symbol tables. The rhyme body is selected by an ordered rule list
// with a flat fallback and then rewritten in four fixed steps: unrounding,
// grade marking, labialization and checked-coda alternation.
package transcribe

import (
	"strings"
	"sync"

	"kwangun/internal/logging"
	"kwangun/internal/predicate"
	"kwangun/internal/rules"
	"kwangun/internal/types"
)

// Deriver holds the tables and evaluator a derivation runs against. It is
// immutable after construction and safe for concurrent use.
type Deriver struct {
	ev        *predicate.Evaluator
	onsets    rules.Table
	tones     rules.Table
	composite rules.List
	flat      rules.Table
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithEvaluator sets the category evaluator used by every rule and rewrite
// condition.
func WithEvaluator(ev *predicate.Evaluator) Option {
	return func(d *Deriver) {
		d.ev = ev
	}
}

// WithOnsets replaces the onset table.
func WithOnsets(t rules.Table) Option {
	return func(d *Deriver) {
		d.onsets = t
	}
}

// WithTones replaces the tone table.
func WithTones(t rules.Table) Option {
	return func(d *Deriver) {
		d.tones = t
	}
}

// WithRhymes replaces the composite rhyme rules and the flat fallback.
func WithRhymes(composite rules.List, flat rules.Table) Option {
	return func(d *Deriver) {
		d.composite = composite
		d.flat = flat
	}
}

// New returns a deriver over the built-in tables, adjusted by opts.
func New(opts ...Option) *Deriver {
	d := &Deriver{
		ev:        predicate.Default(),
		onsets:    Onsets,
		tones:     Tones,
		composite: CompositeRhymes,
		flat:      FlatRhymes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var (
	defaultOnce    sync.Once
	defaultDeriver *Deriver
)

// Default returns the shared deriver over the built-in tables.
func Default() *Deriver {
	defaultOnce.Do(func() {
		defaultDeriver = New()
	})
	return defaultDeriver
}

// Derive transcribes r with the built-in tables.
func Derive(r types.Record) string {
	return Default().Derive(r)
}

// Derive returns the transcription of r. Missing features contribute "".
func (d *Deriver) Derive(r types.Record) string {
	return d.Trace(r).Result
}

// =============================================================================
// TRACE
// =============================================================================

// Source records where the unrewritten rhyme body came from.
type Source string

const (
	SourceComposite Source = "composite"
	SourceFlat      Source = "flat"
	SourceNone      Source = "none"
)

// Step is one rhyme body rewrite. Applied reports whether the step's guard
// held; Note names the branch taken.
type Step struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
	Note    string `json:"note,omitempty"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// Changed reports whether the step rewrote the body.
func (s Step) Changed() bool {
	return s.Before != s.After
}

// Trace is the full record of one derivation.
type Trace struct {
	Record types.Record `json:"-"`

	Onset    string `json:"onset"`
	BaseBody string `json:"base_body"`
	Source   Source `json:"source"`
	Rule     string `json:"rule,omitempty"` // condition of the matching composite rule
	Steps    []Step `json:"steps"`
	Body     string `json:"body"`
	Tone     string `json:"tone"`
	Result   string `json:"result"`
}

// Step names, in application order.
const (
	StepUnround   = "unround"
	StepGrade     = "grade"
	StepLabialize = "labialize"
	StepChecked   = "checked"
)

// Trace derives r and returns every intermediate value.
func (d *Deriver) Trace(r types.Record) Trace {
	t := Trace{
		Record: r,
		Onset:  d.onsets.LookupFeature(r, types.FeatureOnset),
		Tone:   d.tones.LookupFeature(r, types.FeatureTone),
	}

	t.BaseBody, t.Source, t.Rule = d.baseBody(r)

	body := t.BaseBody
	for _, step := range []func(types.Record, string) Step{
		d.unround,
		d.markGrade,
		d.labialize,
		d.checkedCoda,
	} {
		s := step(r, body)
		t.Steps = append(t.Steps, s)
		body = s.After
	}

	t.Body = body
	t.Result = t.Onset + t.Body + t.Tone
	logging.TranscribeDebug("%s -> %s (base %q from %s)", r, t.Result, t.BaseBody, t.Source)
	return t
}

func (d *Deriver) baseBody(r types.Record) (string, Source, string) {
	if rule, _, ok := d.composite.Match(d.ev, r); ok && rule.Then != "" {
		return rule.Then, SourceComposite, rule.When
	}
	if r.Has(types.FeatureRhyme) {
		if body := d.flat.Lookup(r.RhymeBase()); body != "" {
			return body, SourceFlat, ""
		}
	}
	return "", SourceNone, ""
}

// =============================================================================
// REWRITES
// =============================================================================

// unround rewrites a leading rounded vowel of an open-articulation body:
// u- becomes y-, o- becomes eo-. Bodies with an -m coda keep their vowel.
func (d *Deriver) unround(r types.Record, body string) Step {
	s := Step{Name: StepUnround, Before: body, After: body}
	if !d.ev.Is(r, "開口") || strings.HasSuffix(body, "m") {
		return s
	}
	s.Applied = true
	switch {
	case strings.HasPrefix(body, "u"):
		s.After = "y" + body[1:]
		s.Note = "u->y"
	case strings.HasPrefix(body, "o"):
		s.After = "eo" + body[1:]
		s.Note = "o->eo"
	}
	return s
}

// markGrade adds the grade glide. Triple-grade bodies (and quadruple-grade
// ae- bodies) get i- for class A and sharp-fronted shapes, y- or u- otherwise;
// every other high-vowel body gets o-.
func (d *Deriver) markGrade(r types.Record, body string) Step {
	s := Step{Name: StepGrade, Before: body, After: body}

	if !(d.ev.Is(r, "三等") || (d.ev.Is(r, "四等") && strings.HasPrefix(body, "ae"))) {
		if strings.HasPrefix(body, "y") || strings.HasPrefix(body, "u") {
			s.Applied = true
			s.Note = "o-"
			s.After = "o" + body
		}
		return s
	}

	s.Applied = true
	if d.ev.Is(r, "A類") || (d.ev.Is(r, "銳音 非 莊組") && frontShape(body)) {
		s.Note = "i-"
		s.After = prefixOnce(body, "i")
		return s
	}

	var unrounded bool
	if backShape(body) {
		unrounded = d.ev.Is(r, "開口")
	} else {
		unrounded = d.ev.Is(r, "非 合口")
	}
	if unrounded {
		s.Note = "y-"
		s.After = strings.Replace(prefixOnce(body, "y"), "yeo", "yo", 1)
		return s
	}
	s.Note = "u-"
	s.After = prefixOnce(body, "u")
	return s
}

// labialize adds w- to closed-articulation bodies that do not start rounded.
func (d *Deriver) labialize(r types.Record, body string) Step {
	s := Step{Name: StepLabialize, Before: body, After: body}
	if !d.ev.Is(r, "合口") || strings.HasPrefix(body, "u") || strings.HasPrefix(body, "o") {
		return s
	}
	s.Applied = true
	s.Note = "w-"
	s.After = "w" + body
	return s
}

// checkedCoda turns nasal codas into stops under the entering tone. Each of
// ng->k, n->t, m->p replaces the first occurrence, in that order.
func (d *Deriver) checkedCoda(r types.Record, body string) Step {
	s := Step{Name: StepChecked, Before: body, After: body}
	if !d.ev.Is(r, "入聲") {
		return s
	}
	s.Applied = true
	out := strings.Replace(body, "ng", "k", 1)
	out = strings.Replace(out, "n", "t", 1)
	out = strings.Replace(out, "m", "p", 1)
	s.After = out
	return s
}

// frontShape matches bodies starting i-, e- (but not eo-) or ae-.
func frontShape(body string) bool {
	switch {
	case strings.HasPrefix(body, "i"), strings.HasPrefix(body, "ae"):
		return true
	case strings.HasPrefix(body, "e"):
		return !strings.HasPrefix(body, "eo")
	}
	return false
}

// backShape matches bodies starting u-, o- or a- (but not ae-).
func backShape(body string) bool {
	switch {
	case strings.HasPrefix(body, "u"), strings.HasPrefix(body, "o"):
		return true
	case strings.HasPrefix(body, "a"):
		return !strings.HasPrefix(body, "ae")
	}
	return false
}

func prefixOnce(body, p string) string {
	if strings.HasPrefix(body, p) {
		return body
	}
	return p + body
}
