package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "As requested, here is the JSON:\n{\"questions\": [\"Q1\"]}",
			expected: `{"questions": ["Q1"]}`,
		},
		{
			name:     "preamble before array",
			input:    "Sure! [\"Q1\", \"Q2\"]",
			expected: `["Q1", "Q2"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	valid := `{"score": 80}`
	out, err := RepairJSON(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, out)

	out, err = RepairJSON(`{"feedback": "ok", "score": 80,}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feedback": "ok", "score": 80}`, out)

	out, err = RepairJSON(`{'transcription': 'hello'}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"transcription": "hello"}`, out)
}
