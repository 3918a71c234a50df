package rag

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Kind tags the item family a schema describes.
type Kind string

const (
	KindQA  Kind = "qa"
	KindMCQ Kind = "mcq"
)

// ParseKind maps user input onto a Kind. Empty input selects MCQ.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindMCQ:
		return KindMCQ, nil
	case KindQA:
		return KindQA, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// QAItem is a short question-answer pair.
type QAItem struct {
	ID       string `json:"id" validate:"required"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

func (i QAItem) ItemID() string { return i.ID }

// MCQItem is a four-option multiple-choice question. CorrectIndex is 1-based.
type MCQItem struct {
	ID           string   `json:"id" validate:"required"`
	Question     string   `json:"question" validate:"required"`
	Options      []string `json:"options" validate:"len=4,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"min=1,max=4"`
	Explanation  string   `json:"explanation,omitempty"`
}

func (i MCQItem) ItemID() string { return i.ID }

// UnmarshalJSON accepts correct_index written as any integral JSON number,
// so 2 and 2.0 decode alike. Fractional values are rejected.
func (i *MCQItem) UnmarshalJSON(data []byte) error {
	type plain MCQItem
	var raw struct {
		plain
		CorrectIndex json.Number `json:"correct_index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = MCQItem(raw.plain)
	if raw.CorrectIndex == "" {
		return nil
	}
	f, err := raw.CorrectIndex.Float64()
	if err != nil {
		return fmt.Errorf("correct_index %q: %w", raw.CorrectIndex, err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("correct_index %s is not an integer", raw.CorrectIndex)
	}
	i.CorrectIndex = int(f)
	return nil
}

// Item is the set of generated item types.
type Item interface {
	QAItem | MCQItem
	ItemID() string
}

type FieldType string

const (
	FieldString      FieldType = "string"
	FieldInteger     FieldType = "integer"
	FieldStringArray FieldType = "array"
)

// Field describes one property of a generated item.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Cardinality for array fields, zero when unconstrained.
	MinItems int
	MaxItems int
	// Bounds for integer fields, zero when unconstrained.
	Minimum int
	Maximum int
}

// Schema is a versioned descriptor of the JSON a model must emit for one Kind.
type Schema struct {
	Kind        Kind
	Name        string
	Version     string
	Description string
	Fields      []Field
}

var (
	QASchema = Schema{
		Kind:        KindQA,
		Name:        "qa_list",
		Version:     "1",
		Description: "A list of question-answer pairs with short, concise answers.",
		Fields: []Field{
			{Name: "id", Type: FieldString, Description: "Unique id for the question", Required: true},
			{Name: "question", Type: FieldString, Description: "The question text", Required: true},
			{Name: "answer", Type: FieldString, Description: "Short, concise answer (1-3 sentences max)", Required: true},
		},
	}

	MCQSchema = Schema{
		Kind:        KindMCQ,
		Name:        "mcq_list",
		Version:     "1",
		Description: "A list of MCQ objects. Each MCQ must include exactly 4 options and one correct index (1-based).",
		Fields: []Field{
			{Name: "id", Type: FieldString, Description: "Unique id for the question", Required: true},
			{Name: "question", Type: FieldString, Required: true},
			{Name: "options", Type: FieldStringArray, Required: true, MinItems: 4, MaxItems: 4},
			{Name: "correct_index", Type: FieldInteger, Required: true, Minimum: 1, Maximum: 4},
			{Name: "explanation", Type: FieldString, Description: "Short justification for the correct answer"},
		},
	}
)

// SchemaFor returns the descriptor registered for kind.
func SchemaFor(kind Kind) (Schema, error) {
	switch kind {
	case KindQA:
		return QASchema, nil
	case KindMCQ:
		return MCQSchema, nil
	default:
		return Schema{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

type jsonSchemaProperty struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Items       *jsonSchemaProperty `json:"items,omitempty"`
	MinItems    int                 `json:"minItems,omitempty"`
	MaxItems    int                 `json:"maxItems,omitempty"`
	Minimum     int                 `json:"minimum,omitempty"`
	Maximum     int                 `json:"maximum,omitempty"`
}

type jsonSchemaObject struct {
	Type       string                        `json:"type"`
	Properties map[string]jsonSchemaProperty `json:"properties"`
	Required   []string                      `json:"required"`
}

type jsonSchemaDocument struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	Items       jsonSchemaObject `json:"items"`
}

// JSON renders the descriptor as a JSON Schema-like document for prompts.
func (s Schema) JSON() (string, error) {
	doc := jsonSchemaDocument{
		Name:        s.Name,
		Version:     s.Version,
		Description: s.Description,
		Type:        "array",
		Items: jsonSchemaObject{
			Type:       "object",
			Properties: make(map[string]jsonSchemaProperty, len(s.Fields)),
			Required:   []string{},
		},
	}
	for _, f := range s.Fields {
		prop := jsonSchemaProperty{
			Type:        string(f.Type),
			Description: f.Description,
			MinItems:    f.MinItems,
			MaxItems:    f.MaxItems,
			Minimum:     f.Minimum,
			Maximum:     f.Maximum,
		}
		if f.Type == FieldStringArray {
			prop.Items = &jsonSchemaProperty{Type: string(FieldString)}
		}
		doc.Items.Properties[f.Name] = prop
		if f.Required {
			doc.Items.Required = append(doc.Items.Required, f.Name)
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal %s schema failed: %w", s.Name, err)
	}
	return string(b), nil
}

var itemValidator = validator.New()

// validateItems checks field constraints and id uniqueness across the batch.
func validateItems[T Item](items []T) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if err := itemValidator.Struct(item); err != nil {
			return fmt.Errorf("item %d is invalid: %w", i, err)
		}
		id := item.ItemID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("item %d has duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
