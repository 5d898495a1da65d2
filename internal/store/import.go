package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kwangun/internal/types"
)

// ParseReadings decodes a YAML sequence of feature maps keyed by the feature
// names, for example:
//
//	- 字: 東
//	  纽: 端
//	  呼: 開
//	  等: 一
//	  韵: 東
//	  声: 平
//	  摄: 通
//	  反切: 德紅
func ParseReadings(data []byte) ([]types.Record, error) {
	var raw []map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse readings: %w", err)
	}
	out := make([]types.Record, 0, len(raw))
	for _, m := range raw {
		out = append(out, types.FromStrings(m))
	}
	return out, nil
}

// LoadReadings reads a YAML readings file.
func LoadReadings(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read readings file: %w", err)
	}
	return ParseReadings(data)
}

// Import loads a YAML readings file into the store in one transaction.
func (s *Store) Import(ctx context.Context, path string) ([]Reading, error) {
	records, err := LoadReadings(path)
	if err != nil {
		return nil, err
	}
	readings, err := s.PutAll(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return readings, nil
}

// ExportReadings encodes readings as YAML in the format ParseReadings reads.
func ExportReadings(readings []Reading) ([]byte, error) {
	raw := make([]map[string]string, 0, len(readings))
	for _, r := range readings {
		raw = append(raw, r.Record.Strings())
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal readings: %w", err)
	}
	return data, nil
}
