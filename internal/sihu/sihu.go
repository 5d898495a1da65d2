// Package sihu classifies Middle Chinese readings into the four modern medial
// classes (四呼): 開口呼, 齊齒呼, 合口呼 and 撮口呼.
//
// The basic class follows articulation and grade. A short list of special
// rules keyed on onset group, rhyme and rhyme supercategory overrides it. Both
// are ordinary rule lists evaluated by a predicate evaluator whose catalog adds
// the onset-group and supercategory atoms used here.
package sihu

import (
	"sync"

	"kwangun/internal/logging"
	"kwangun/internal/predicate"
	"kwangun/internal/rules"
	"kwangun/internal/types"
)

// The four medial classes.
const (
	Open      = "開口呼"
	Even      = "齊齒呼"
	Closed    = "合口呼"
	Protruded = "撮口呼"
)

// Unknown is the group name for onsets outside every group.
const Unknown = "unknown"

// =============================================================================
// ONSET GROUPS
// =============================================================================

// OnsetGroup is a named set of onsets. The spellings are those of the
// four-medial tables and differ from the transcription onsets for 帮 来 娘 群 禅.
type OnsetGroup struct {
	Name   string
	Atom   string
	Onsets []string
}

// Groups lists the onset groups in lookup order.
var Groups = []OnsetGroup{
	{Name: "bang", Atom: "幫組", Onsets: []string{"帮", "滂", "並", "明", "非", "敷", "奉", "微"}},
	{Name: "duan", Atom: "端組", Onsets: []string{"端", "透", "定", "泥", "来"}},
	{Name: "jing", Atom: "精組", Onsets: []string{"精", "清", "從", "心", "邪"}},
	{Name: "zhi", Atom: "知組", Onsets: []string{"知", "徹", "澄", "娘"}},
	{Name: "zhuang", Atom: "莊組", Onsets: []string{"莊", "初", "崇", "生"}},
	{Name: "zhang", Atom: "章組", Onsets: []string{"章", "昌", "船", "書", "禅"}},
	{Name: "ri", Atom: "日母", Onsets: []string{"日"}},
	{Name: "jian", Atom: "見組", Onsets: []string{"見", "溪", "群", "疑"}},
	{Name: "xiao", Atom: "曉組", Onsets: []string{"曉", "匣"}},
	{Name: "ying", Atom: "影母", Onsets: []string{"影"}},
}

// Group returns the group name of onset, or Unknown.
func Group(onset string) string {
	for _, g := range Groups {
		for _, o := range g.Onsets {
			if o == onset {
				return g.Name
			}
		}
	}
	return Unknown
}

// Catalog returns the atoms the classifier adds to the base catalog: one per
// onset group, the 知系 and 見系 unions, and the 止攝 and 蟹攝 supercategories.
// 莊組 here excludes 俟.
func Catalog() predicate.Catalog {
	c := predicate.Catalog{}
	byName := map[string][]string{}
	for _, g := range Groups {
		c[g.Atom] = predicate.FeatureIn(types.FeatureOnset, g.Onsets...)
		byName[g.Name] = g.Onsets
	}

	union := func(names ...string) []string {
		var out []string
		for _, n := range names {
			out = append(out, byName[n]...)
		}
		return out
	}
	c["知系"] = predicate.FeatureIn(types.FeatureOnset, union("zhi", "zhuang", "zhang", "ri")...)
	c["見系"] = predicate.FeatureIn(types.FeatureOnset, union("jian", "xiao", "ying")...)

	c["止攝"] = predicate.FeatureEquals(types.FeatureSection, "止")
	c["蟹攝"] = predicate.FeatureEquals(types.FeatureSection, "蟹")
	return c
}

// =============================================================================
// RULES
// =============================================================================

// BasicRules map articulation and grade to a class. The final empty condition
// always holds.
var BasicRules = rules.List{
	{When: "開口 一等或二等", Then: Open},
	{When: "開口 三等或四等", Then: Even},
	{When: "合口 一等或二等", Then: Closed},
	{When: "合口 三等或四等", Then: Protruded},
	{When: "", Then: Open},
}

// SpecialRules override the basic class. First match wins.
var SpecialRules = rules.List{
	{When: "開口 二等 見系", Then: Even},
	{When: "開口 二等 莊組 江韻", Then: Closed},
	{When: "開口 三等 章組 陽韻", Then: Closed},
	{When: "開口 三等 知系", Then: Open},
	{When: "開口 三等 止攝或蟹攝", Then: Even},
	{When: "合口 一等 幫組", Then: Closed},
	{When: "合口 三等 知系", Then: Closed},
	{When: "合口 三等 見系", Then: Protruded},
}

var (
	evOnce sync.Once
	ev     *predicate.Evaluator
)

// Evaluator returns the evaluator over the base catalog plus Catalog().
func Evaluator() *predicate.Evaluator {
	evOnce.Do(func() {
		ev = predicate.New(predicate.Base(), Catalog())
	})
	return ev
}

// Result explains one classification.
type Result struct {
	Basic   string `json:"basic"`
	Class   string `json:"class"`
	Special string `json:"special,omitempty"` // condition of the overriding rule
}

// Overridden reports whether a special rule replaced the basic class.
func (r Result) Overridden() bool {
	return r.Special != ""
}

// Classify returns the four-medial class of r.
func Classify(r types.Record) string {
	return Explain(r).Class
}

// Explain classifies r and reports which rule decided.
func Explain(r types.Record) Result {
	e := Evaluator()
	res := Result{Basic: BasicRules.ResolveWith(e, r)}
	res.Class = res.Basic
	if rule, _, ok := SpecialRules.Match(e, r); ok {
		res.Class = rule.Then
		res.Special = rule.When
	}
	logging.SiHuDebug("%s -> %s (basic %s, special %q)", r, res.Class, res.Basic, res.Special)
	return res
}
