package rag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleMCQs = []MCQItem{
	{
		ID:           "Q1",
		Question:     "What trajectory does a ballistic missile follow after burnout?",
		Options:      []string{"Ballistic", "Circular", "Hovering", "Sinusoidal"},
		CorrectIndex: 1,
		Explanation:  "Unpowered flight follows a ballistic arc.",
	},
	{
		ID:           "Q2",
		Question:     "Which phase comes first?",
		Options:      []string{"Terminal", "Midcourse", "Boost", "Re-entry"},
		CorrectIndex: 3,
	},
}

var sampleQAs = []QAItem{
	{ID: "1", Question: "What is a ballistic missile?", Answer: "A missile that follows a ballistic trajectory."},
	{ID: "2", Question: "What powers the boost phase?", Answer: "Rocket engines."},
}

func TestRecover_RoundTrip(t *testing.T) {
	t.Run("mcq", func(t *testing.T) {
		raw, err := json.Marshal(sampleMCQs)
		require.NoError(t, err)

		out, err := Recover[MCQItem](string(raw), MCQSchema, StrategiesFor(KindMCQ))
		require.NoError(t, err)
		assert.Equal(t, sampleMCQs, out.Items)
		assert.Equal(t, StrategySchema, out.Strategy)
	})

	t.Run("qa", func(t *testing.T) {
		raw, err := json.Marshal(sampleQAs)
		require.NoError(t, err)

		out, err := Recover[QAItem](string(raw), QASchema, StrategiesFor(KindQA))
		require.NoError(t, err)
		assert.Equal(t, sampleQAs, out.Items)
		assert.Equal(t, StrategySchema, out.Strategy)
	})
}

func TestRecover_SchemaAcceptsFencedAndWrapped(t *testing.T) {
	raw, err := json.Marshal(sampleQAs)
	require.NoError(t, err)

	fenced := "```json\n" + string(raw) + "\n```"
	out, err := Recover[QAItem](fenced, QASchema, StrategiesFor(KindQA))
	require.NoError(t, err)
	assert.Equal(t, StrategySchema, out.Strategy)
	assert.Equal(t, sampleQAs, out.Items)

	wrapped := `{"qa_list": ` + string(raw) + `}`
	out, err = Recover[QAItem](wrapped, QASchema, StrategiesFor(KindQA))
	require.NoError(t, err)
	assert.Equal(t, StrategySchema, out.Strategy)
	assert.Equal(t, sampleQAs, out.Items)
}

func TestRecover_ArrayBetweenProse(t *testing.T) {
	raw, err := json.Marshal(sampleQAs)
	require.NoError(t, err)

	text := "Sure! Here are your questions:\n" + string(raw) + "\nLet me know if you need more."
	out, err := Recover[QAItem](text, QASchema, StrategiesFor(KindQA))
	require.NoError(t, err)
	assert.Equal(t, StrategyBareArray, out.Strategy)
	assert.Equal(t, sampleQAs, out.Items)
}

func TestRecover_MCQWrapperObjectInProse(t *testing.T) {
	text := `Here is the JSON: {"mcq_list": [{"id":"Q1","question":"What is a ballistic missile?",` +
		`"options":["A guided glider","A missile on a ballistic trajectory","A drone","A cruise missile"],` +
		`"correct_index":2,"explanation":"It follows a ballistic trajectory."}]} Hope this helps!`

	out, err := Recover[MCQItem](text, MCQSchema, StrategiesFor(KindMCQ))
	require.NoError(t, err)
	assert.Equal(t, StrategyWrapperObject, out.Strategy)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Q1", out.Items[0].ID)
	assert.Equal(t, 2, out.Items[0].CorrectIndex)
	assert.Len(t, out.Items[0].Options, 4)
}

func TestRecover_QASkipsWrapperObject(t *testing.T) {
	assert.Equal(t, []StrategyName{StrategySchema, StrategyBareArray}, strategyNames(StrategiesFor(KindQA)))
	assert.Equal(t, []StrategyName{StrategySchema, StrategyWrapperObject, StrategyBareArray}, strategyNames(StrategiesFor(KindMCQ)))

	// Only the wrapper field holds items; bare_array then picks the inner list.
	text := `Output: {"qa_list": [{"id":"1","question":"q","answer":"a"}]} done`
	out, err := Recover[QAItem](text, QASchema, StrategiesFor(KindQA))
	require.NoError(t, err)
	assert.Equal(t, StrategyBareArray, out.Strategy)
	assert.Equal(t, []QAItem{{ID: "1", Question: "q", Answer: "a"}}, out.Items)
}

func TestRecover_InvalidItemsFallThrough(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"three options", `[{"id":"Q1","question":"q","options":["a","b","c"],"correct_index":1}]`},
		{"index out of range", `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":5}]`},
		{"zero index", `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":0}]`},
		{"fractional index", `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":2.5}]`},
		{"missing question", `[{"id":"Q1","options":["a","b","c","d"],"correct_index":1}]`},
		{"duplicate ids", `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":1},` +
			`{"id":"Q1","question":"r","options":["a","b","c","d"],"correct_index":2}]`},
		{"not json", `I could not generate questions for this context.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Recover[MCQItem](tt.raw, MCQSchema, StrategiesFor(KindMCQ))
			require.Error(t, err)
			assert.Empty(t, out.Items)

			var soErr *StructuredOutputError
			require.ErrorAs(t, err, &soErr)
			assert.Equal(t, KindMCQ, soErr.Kind)
			assert.Equal(t, tt.raw, soErr.Raw)
			assert.Len(t, soErr.Attempts, 3)
		})
	}
}

func TestRecover_MCQIntegralFloatIndex(t *testing.T) {
	raw := `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":2.0},` +
		`{"id":"Q2","question":"r","options":["a","b","c","d"],"correct_index":4e0}]`

	out, err := Recover[MCQItem](raw, MCQSchema, StrategiesFor(KindMCQ))
	require.NoError(t, err)
	assert.Equal(t, StrategySchema, out.Strategy)
	require.Len(t, out.Items, 2)
	assert.Equal(t, 2, out.Items[0].CorrectIndex)
	assert.Equal(t, 4, out.Items[1].CorrectIndex)
}

func TestRecover_ValidationFailureTriesNextStrategy(t *testing.T) {
	invalid := Strategy{Name: "invalid", extract: func(string, Schema) (string, error) {
		return `[{"id":"Q1","question":"q","options":["a","b"],"correct_index":1}]`, nil
	}}
	valid := Strategy{Name: "valid", extract: func(string, Schema) (string, error) {
		return `[{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":4}]`, nil
	}}

	out, err := Recover[MCQItem]("ignored", MCQSchema, []Strategy{invalid, valid})
	require.NoError(t, err)
	assert.Equal(t, StrategyName("valid"), out.Strategy)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 4, out.Items[0].CorrectIndex)
}

func TestRecover_ProseBeforeArrayAndStrayObject(t *testing.T) {
	text := `note {"x":1} [{"id":"Q1","question":"q","options":["a","b","c","d"],"correct_index":2}] end`

	out, err := Recover[MCQItem](text, MCQSchema, StrategiesFor(KindMCQ))
	require.NoError(t, err)
	assert.Equal(t, StrategyBareArray, out.Strategy)
	require.Len(t, out.Items, 1)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[1]`, stripCodeFence("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripCodeFence("```\n[1]\n```"))
	assert.Equal(t, `[1]`, stripCodeFence("  [1]  "))
}

func strategyNames(strategies []Strategy) []StrategyName {
	names := make([]StrategyName, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	return names
}
