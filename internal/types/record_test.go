package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordDropsEmptyValues(t *testing.T) {
	r := NewRecord(map[Feature]string{
		FeatureOnset: "幫",
		FeatureTone:  "",
	})

	assert.True(t, r.Has(FeatureOnset))
	assert.False(t, r.Has(FeatureTone))
	assert.Equal(t, 1, r.Len())
}

func TestRecordIsImmutable(t *testing.T) {
	src := map[Feature]string{FeatureRhyme: "脂"}
	r := NewRecord(src)
	src[FeatureRhyme] = "之"

	assert.Equal(t, "脂", r.Value(FeatureRhyme))

	m := r.Map()
	m[FeatureRhyme] = "支"
	assert.Equal(t, "脂", r.Value(FeatureRhyme))

	r2 := r.With(FeatureRhyme, "支")
	assert.Equal(t, "脂", r.Value(FeatureRhyme))
	assert.Equal(t, "支", r2.Value(FeatureRhyme))
}

func TestRecordWithEmptyRemoves(t *testing.T) {
	r := NewRecord(map[Feature]string{FeatureTone: "入"}).With(FeatureTone, "")
	_, ok := r.Get(FeatureTone)
	assert.False(t, ok)
}

func TestRecordEqualAndKey(t *testing.T) {
	a := FromStrings(map[string]string{"纽": "幫", "呼": "合"})
	b := NewRecord(map[Feature]string{FeatureHu: "合", FeatureOnset: "幫"})
	c := NewRecord(map[Feature]string{FeatureHu: "開", FeatureOnset: "幫"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestRecordString(t *testing.T) {
	r := FromStrings(map[string]string{
		"字": "悲",
		"声": "平",
		"纽": "幫",
		"zz": "x",
	})
	assert.Equal(t, "字=悲 纽=幫 声=平 zz=x", r.String())
}

func TestStripClassLetter(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"支A", "支"},
		{"脂B", "脂"},
		{"脂", "脂"},
		{"", ""},
		{"AB", "A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripClassLetter(tt.in), tt.in)
	}

	r := NewRecord(map[Feature]string{FeatureRhyme: "祭A"})
	assert.Equal(t, "祭", r.RhymeBase())
	assert.Equal(t, "", Record{}.RhymeBase())
}

func TestFeatureIsKnown(t *testing.T) {
	for _, f := range Features {
		assert.True(t, f.IsKnown(), string(f))
	}
	assert.True(t, FeatureCharName.IsKnown())
	assert.False(t, Feature("聲調").IsKnown())
}
