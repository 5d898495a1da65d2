package predicate

import (
	"strings"

	"kwangun/internal/types"
)

// Test is one atomic category test. It receives the evaluator so composed
// atoms (C類) can consult other atoms through the same catalog stack.
type Test func(ev *Evaluator, r types.Record) bool

// Catalog maps atom names to tests.
type Catalog map[string]Test

// Resolver recognises families of atoms by shape rather than by exact name,
// such as rhyme-group atoms like 尤侯韻.
type Resolver func(name string) (Test, bool)

// =============================================================================
// CATEGORY DATA
// =============================================================================

// FrontVowelRhymes are the triple-grade rhymes with a front vowel; they are
// excluded from class C.
var FrontVowelRhymes = []string{
	"支", "脂", "之", "微", "魚", "虞", "模", "齊", "祭", "廢",
	"真", "臻", "殷", "文", "仙", "元", "先", "幽", "蕭", "宵",
	"侵", "鹽", "嚴", "添",
}

// SharpOnsets (銳音) are the coronal onsets.
var SharpOnsets = []string{
	"端", "透", "定", "泥", "來", "精", "清", "從", "心", "邪",
	"章", "昌", "常", "書", "船", "日", "以",
}

// RetroflexSibilants (莊組) are the retroflex sibilant onsets.
var RetroflexSibilants = []string{"莊", "初", "崇", "生", "俟"}

var (
	frontVowelSet        = setOf(FrontVowelRhymes)
	sharpOnsetSet        = setOf(SharpOnsets)
	retroflexSibilantSet = setOf(RetroflexSibilants)
)

func setOf(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// =============================================================================
// TEST CONSTRUCTORS
// =============================================================================

// FeatureEquals tests f == value. A missing feature never matches.
func FeatureEquals(f types.Feature, value string) Test {
	return func(_ *Evaluator, r types.Record) bool {
		v, ok := r.Get(f)
		if !ok {
			logMissing(f)
			return false
		}
		return v == value
	}
}

// FeatureIn tests membership of f's value in values.
func FeatureIn(f types.Feature, values ...string) Test {
	set := setOf(values)
	return func(_ *Evaluator, r types.Record) bool {
		v, ok := r.Get(f)
		if !ok {
			logMissing(f)
			return false
		}
		_, hit := set[v]
		return hit
	}
}

// RhymeHasSuffix tests whether the rhyme value ends with suffix.
func RhymeHasSuffix(suffix string) Test {
	return func(_ *Evaluator, r types.Record) bool {
		v, ok := r.Get(types.FeatureRhyme)
		if !ok {
			logMissing(types.FeatureRhyme)
			return false
		}
		return strings.HasSuffix(v, suffix)
	}
}

// RhymeBaseIn tests whether the rhyme with its class letter stripped is one
// of bases.
func RhymeBaseIn(bases ...string) Test {
	set := setOf(bases)
	return func(_ *Evaluator, r types.Record) bool {
		if !r.Has(types.FeatureRhyme) {
			logMissing(types.FeatureRhyme)
			return false
		}
		_, hit := set[r.RhymeBase()]
		return hit
	}
}

// classC is the residual class: triple grade, neither A nor B, and not a
// front-vowel rhyme.
func classC(ev *Evaluator, r types.Record) bool {
	if !ev.Is(r, "三等") {
		return false
	}
	if ev.Is(r, "A類") || ev.Is(r, "B類") {
		return false
	}
	if !r.Has(types.FeatureRhyme) {
		return false
	}
	_, front := frontVowelSet[r.RhymeBase()]
	return !front
}

// =============================================================================
// BASE CATALOG
// =============================================================================

// Base returns the atom catalog for the rhyme-table categories. Each call
// returns a fresh map so callers may extend it.
func Base() Catalog {
	c := Catalog{
		"開口": FeatureEquals(types.FeatureHu, "開"),
		"合口": FeatureEquals(types.FeatureHu, "合"),

		"一等": FeatureEquals(types.FeatureGrade, "一"),
		"二等": FeatureEquals(types.FeatureGrade, "二"),
		"三等": FeatureEquals(types.FeatureGrade, "三"),
		"四等": FeatureEquals(types.FeatureGrade, "四"),

		"平聲": FeatureEquals(types.FeatureTone, "平"),
		"上聲": FeatureEquals(types.FeatureTone, "上"),
		"去聲": FeatureEquals(types.FeatureTone, "去"),
		"入聲": FeatureEquals(types.FeatureTone, "入"),

		"A類": RhymeHasSuffix("A"),
		"B類": RhymeHasSuffix("B"),
		"C類": classC,

		"銳音": FeatureIn(types.FeatureOnset, SharpOnsets...),
		"莊組": FeatureIn(types.FeatureOnset, RetroflexSibilants...),
	}
	// Simplified spellings of the class atoms.
	c["A类"] = c["A類"]
	c["B类"] = c["B類"]
	c["C类"] = c["C類"]
	return c
}

// RhymeGroupResolver recognises atoms of the form X…韻 (or X…韵): true when the
// record's rhyme base is one of the characters before the suffix.
func RhymeGroupResolver(name string) (Test, bool) {
	var prefix string
	switch {
	case strings.HasSuffix(name, "韻"):
		prefix = strings.TrimSuffix(name, "韻")
	case strings.HasSuffix(name, "韵"):
		prefix = strings.TrimSuffix(name, "韵")
	default:
		return nil, false
	}
	if prefix == "" {
		return nil, false
	}
	var bases []string
	for _, ch := range prefix {
		bases = append(bases, string(ch))
	}
	return RhymeBaseIn(bases...), true
}
