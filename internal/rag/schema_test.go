package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindMCQ, k)

	k, err = ParseKind("qa")
	require.NoError(t, err)
	assert.Equal(t, KindQA, k)

	_, err = ParseKind("essay")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestSchemaJSON_MCQConstraints(t *testing.T) {
	doc, err := MCQSchema.JSON()
	require.NoError(t, err)
	require.True(t, gjson.Valid(doc))

	assert.Equal(t, "mcq_list", gjson.Get(doc, "name").String())
	assert.Equal(t, "array", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(4), gjson.Get(doc, "items.properties.options.minItems").Int())
	assert.Equal(t, int64(4), gjson.Get(doc, "items.properties.options.maxItems").Int())
	assert.Equal(t, int64(1), gjson.Get(doc, "items.properties.correct_index.minimum").Int())
	assert.Equal(t, int64(4), gjson.Get(doc, "items.properties.correct_index.maximum").Int())

	var required []string
	for _, r := range gjson.Get(doc, "items.required").Array() {
		required = append(required, r.String())
	}
	assert.Equal(t, []string{"id", "question", "options", "correct_index"}, required)
}

func TestSchemaFor(t *testing.T) {
	s, err := SchemaFor(KindQA)
	require.NoError(t, err)
	assert.Equal(t, "qa_list", s.Name)

	_, err = SchemaFor(Kind("essay"))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(MCQSchema, "ctx with {schema} literal", 4)
	require.NoError(t, err)

	assert.Contains(t, p, "exactly 4 multiple-choice questions")
	assert.Contains(t, p, "ctx with {schema} literal")
	assert.Contains(t, p, `"name":"mcq_list"`)
	assert.NotContains(t, p, "{num_questions}")
	assert.Contains(t, p, "unique id: Q1, Q2")

	qa, err := BuildPrompt(QASchema, "ctx", 3)
	require.NoError(t, err)
	assert.Contains(t, qa, "unique id: QA1, QA2")

	_, err = BuildPrompt(Schema{Kind: "essay"}, "ctx", 1)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}
