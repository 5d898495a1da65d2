package config

// DeriveConfig configures batch derivation.
type DeriveConfig struct {
	Workers int `yaml:"workers"` // 0 means GOMAXPROCS
}

// RulesConfig points at YAML rule data applied over the built-in tables.
// Symbol tables merge key by key; the composite rhyme list is tried before
// the built-in one.
type RulesConfig struct {
	OnsetsFile     string `yaml:"onsets_file,omitempty"`
	TonesFile      string `yaml:"tones_file,omitempty"`
	RhymesFile     string `yaml:"rhymes_file,omitempty"`      // composite {when, then} list
	FlatRhymesFile string `yaml:"flat_rhymes_file,omitempty"` // rhyme base -> body
}

// HasOverrides reports whether any rule override is configured.
func (r RulesConfig) HasOverrides() bool {
	return r.OnsetsFile != "" || r.TonesFile != "" || r.RhymesFile != "" || r.FlatRhymesFile != ""
}
