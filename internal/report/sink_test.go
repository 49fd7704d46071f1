package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var rec Recorder
	rec.Report(Question, "What is RAG?")
	rec.Report(Loading, "Thinking")
	rec.Report(Answer, "Retrieval-Augmented Generation")

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, Question, events[0].Kind)
	assert.Equal(t, []string{"Retrieval-Augmented Generation"}, rec.OfKind(Answer))

	raw, err := json.Marshal(events[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"answer","content":"Retrieval-Augmented Generation"}`, string(raw))
}

func TestTee(t *testing.T) {
	var a, b Recorder
	sink := Tee(&a, &b, Discard)

	sink.Report(Warning, "Please enter a question.")

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
