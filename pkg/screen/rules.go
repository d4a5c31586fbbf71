package screen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleDoc is a rule document decoded with its source order intact:
// column -> ordered (condition, operand) pairs. Order matters only for
// diagnostics, but scrambling it through a Go map would make skip
// reports nondeterministic.
type RuleDoc []ColumnRules

// ColumnRules holds the conditions declared for one column.
type ColumnRules struct {
	Column string
	Conds  []Condition
}

// Condition is one (predicate kind, operand) pair. The operand is a
// decoded scalar or []any.
type Condition struct {
	Kind    string
	Operand any
}

// ReadRuleDoc loads a rule document from a JSON or YAML file. The
// document is a mapping from column name to a mapping from predicate
// kind to operand, e.g.
//
//	{"age": {"<=": 30, "in": [25, 26, 27]}, "name": {"contains": "张"}}
func ReadRuleDoc(path string) (RuleDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return parseJSONRules(data)
	case ".yaml", ".yml":
		return parseYAMLRules(data)
	default:
		return nil, fmt.Errorf("unsupported rules format %q (want .json, .yaml)", ext)
	}
}

// parseJSONRules walks the document token by token; json.Unmarshal
// into a map would lose the column order.
func parseJSONRules(data []byte) (RuleDoc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("rules document: %w", err)
	}

	var doc RuleDoc
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("rules document: %w", err)
		}
		column := tok.(string)

		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("conditions for %q: %w", column, err)
		}
		col := ColumnRules{Column: column}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("conditions for %q: %w", column, err)
			}
			kind := tok.(string)
			operand, err := decodeJSONOperand(dec)
			if err != nil {
				return nil, fmt.Errorf("operand for %q %q: %w", column, kind, err)
			}
			col.Conds = append(col.Conds, Condition{Kind: kind, Operand: operand})
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, fmt.Errorf("conditions for %q: %w", column, err)
		}
		doc = append(doc, col)
	}
	return doc, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func decodeJSONOperand(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t != '[' {
			return nil, fmt.Errorf("operand must be a scalar or array, got %q", t)
		}
		var arr []any
		for dec.More() {
			elem, err := decodeJSONOperand(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, err
		}
		return arr, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return tok, nil // string, bool, or nil
	}
}

// parseYAMLRules decodes through yaml.Node for the same reason the
// JSON path uses the token scanner: mapping order must survive.
func parseYAMLRules(data []byte) (RuleDoc, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("rules document: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules document: expected a mapping at the top level")
	}

	var doc RuleDoc
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		colNode, condsNode := mapping.Content[i], mapping.Content[i+1]
		if condsNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("conditions for %q: expected a mapping", colNode.Value)
		}
		col := ColumnRules{Column: colNode.Value}
		for j := 0; j+1 < len(condsNode.Content); j += 2 {
			kindNode, opNode := condsNode.Content[j], condsNode.Content[j+1]
			var operand any
			if err := opNode.Decode(&operand); err != nil {
				return nil, fmt.Errorf("operand for %q %q: %w", colNode.Value, kindNode.Value, err)
			}
			col.Conds = append(col.Conds, Condition{Kind: kindNode.Value, Operand: operand})
		}
		doc = append(doc, col)
	}
	return doc, nil
}
