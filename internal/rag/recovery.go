package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type StrategyName string

const (
	StrategySchema        StrategyName = "schema"
	StrategyWrapperObject StrategyName = "wrapper_object"
	StrategyBareArray     StrategyName = "bare_array"
)

// Strategy extracts the raw JSON array of items from a model response.
type Strategy struct {
	Name    StrategyName
	extract func(raw string, schema Schema) (string, error)
}

var (
	errNotJSON      = errors.New("response is not valid JSON")
	errNoObject     = errors.New("no JSON object found")
	errNoArray      = errors.New("no JSON array found")
	errUnexpectedJS = errors.New("JSON is neither an array nor an object")
)

var (
	schemaStrategy        = Strategy{Name: StrategySchema, extract: extractSchema}
	wrapperObjectStrategy = Strategy{Name: StrategyWrapperObject, extract: extractWrapperObject}
	bareArrayStrategy     = Strategy{Name: StrategyBareArray, extract: extractBareArray}
)

// StrategiesFor returns the ordered recovery chain for kind. MCQ responses
// get the extra wrapper-object pass because models tend to wrap that list.
func StrategiesFor(kind Kind) []Strategy {
	if kind == KindMCQ {
		return []Strategy{schemaStrategy, wrapperObjectStrategy, bareArrayStrategy}
	}
	return []Strategy{schemaStrategy, bareArrayStrategy}
}

// Outcome is a recovered, validated item list and the strategy that produced it.
type Outcome[T Item] struct {
	Items    []T
	Strategy StrategyName
}

// Recover tries each strategy in order. A candidate that parses but fails
// validation does not stop the chain.
func Recover[T Item](raw string, schema Schema, strategies []Strategy) (Outcome[T], error) {
	attempts := make([]Attempt, 0, len(strategies))
	for _, s := range strategies {
		items, err := decodeWith[T](raw, schema, s)
		if err != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
			continue
		}
		return Outcome[T]{Items: items, Strategy: s.Name}, nil
	}
	return Outcome[T]{}, &StructuredOutputError{Kind: schema.Kind, Raw: raw, Attempts: attempts}
}

func decodeWith[T Item](raw string, schema Schema, s Strategy) ([]T, error) {
	arrayJSON, err := s.extract(raw, schema)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal([]byte(arrayJSON), &items); err != nil {
		return nil, fmt.Errorf("decode items failed: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

// extractSchema accepts a response that is entirely JSON, optionally inside a
// markdown code fence, either as a bare list or as {"<schema name>": [...]}.
func extractSchema(raw string, schema Schema) (string, error) {
	text := stripCodeFence(raw)
	if !gjson.Valid(text) {
		return "", errNotJSON
	}
	res := gjson.Parse(text)
	switch {
	case res.IsArray():
		return res.Raw, nil
	case res.IsObject():
		field := res.Get(schema.Name)
		if !field.IsArray() {
			return "", fmt.Errorf("object has no %q list", schema.Name)
		}
		return field.Raw, nil
	default:
		return "", errUnexpectedJS
	}
}

func extractWrapperObject(raw string, schema Schema) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", errNoObject
	}
	obj := raw[start : end+1]
	if !gjson.Valid(obj) {
		return "", fmt.Errorf("embedded object: %w", errNotJSON)
	}
	field := gjson.Get(obj, schema.Name)
	if !field.IsArray() {
		return "", fmt.Errorf("object has no %q list", schema.Name)
	}
	return field.Raw, nil
}

func extractBareArray(raw string, _ Schema) (string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < start {
		return "", errNoArray
	}
	arr := raw[start : end+1]
	if !gjson.Valid(arr) {
		return "", fmt.Errorf("embedded array: %w", errNotJSON)
	}
	return arr, nil
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
