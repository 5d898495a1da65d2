package config

// MangleConfig configures the Mangle query layer.
type MangleConfig struct {
	SchemaPath   string `yaml:"schema_path"` // empty uses the embedded reading schema
	FactLimit    int    `yaml:"fact_limit"`  // 0 means unlimited
	QueryTimeout string `yaml:"query_timeout"`
}
