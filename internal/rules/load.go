package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"kwangun/internal/logging"
)

// ErrEmptyCondition is returned when a rule file contains a rule with no
// condition. An empty condition would match every record and shadow the rest
// of the list.
var ErrEmptyCondition = errors.New("rule has empty condition")

// LoadList reads a YAML sequence of {when, then} rules.
//
//	- when: 脂韻
//	  then: i
//	- when: 蒸韻 A類
//	  then: ing
func LoadList(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule list: %w", err)
	}
	return ParseList(data)
}

// ParseList decodes a YAML rule list. Conditions are not checked against any
// catalog; unknown atoms stay unknown at evaluation time.
func ParseList(data []byte) (List, error) {
	var l List
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse rule list: %w", err)
	}
	for i, rule := range l {
		if rule.When == "" {
			return nil, fmt.Errorf("rule %d (then %q): %w", i, rule.Then, ErrEmptyCondition)
		}
	}
	logging.RulesDebug("parsed rule list with %d rules", len(l))
	return l, nil
}

// LoadTable reads a YAML mapping of key to symbol.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML symbol table. Null values decode as "".
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse symbol table: %w", err)
	}
	if t == nil {
		t = Table{}
	}
	logging.RulesDebug("parsed symbol table with %d entries", len(t))
	return t, nil
}

// MarshalList encodes l as YAML.
func MarshalList(l List) ([]byte, error) {
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule list: %w", err)
	}
	return data, nil
}
