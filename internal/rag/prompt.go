package rag

import (
	"fmt"
	"strconv"
	"strings"
)

const qaPromptTemplate = `You are an expert question writer. Read the context below and write exactly {num_questions} question-answer pairs grounded only in it.

Rules:
- Answers must be short and concise (1-3 sentences).
- Every question must be answerable from the context alone.
- Give every item a short unique id: QA1, QA2, QA3 and so on.
- Return ONLY a JSON array of objects matching this schema, with no prose before or after it:
{schema}

Context:
{context}
`

const mcqPromptTemplate = `You are an expert defense studies question writer. Read the context below and write exactly {num_questions} multiple-choice questions grounded only in it, using precise, textbook-style language.

Rules:
- Each question has exactly 4 options.
- correct_index is the 1-based position of the single correct option.
- Add a short explanation of why that option is correct.
- Never write the phrase "Correct Answer" inside a question or an option.
- Give every item a short unique id: Q1, Q2, Q3 and so on.
- Return ONLY a JSON array of objects matching this schema, with no prose before or after it:
{schema}

Context:
{context}
`

// BuildPrompt fills the template registered for the schema's kind.
func BuildPrompt(schema Schema, contextText string, numQuestions int) (string, error) {
	var tmpl string
	switch schema.Kind {
	case KindQA:
		tmpl = qaPromptTemplate
	case KindMCQ:
		tmpl = mcqPromptTemplate
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, schema.Kind)
	}

	schemaJSON, err := schema.JSON()
	if err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		"{num_questions}", strconv.Itoa(numQuestions),
		"{schema}", schemaJSON,
		"{context}", contextText,
	)
	return r.Replace(tmpl), nil
}
