package report

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		envelope Envelope
		body     string
		expected string
	}{
		{
			name:     "chat completions",
			envelope: EnvelopeChatCompletions,
			body:     `{"choices":[{"message":{"content":"[]"}}]}`,
			expected: "[]",
		},
		{
			name:     "responses",
			envelope: EnvelopeResponses,
			body:     `{"output":[{"content":[{"text":"{\"vulnerabilities\":[]}"}]}]}`,
			expected: `{"vulnerabilities":[]}`,
		},
		{
			name:     "missing choices",
			envelope: EnvelopeChatCompletions,
			body:     `{"id":"x"}`,
			expected: "",
		},
		{
			name:     "empty choices",
			envelope: EnvelopeChatCompletions,
			body:     `{"choices":[]}`,
			expected: "",
		},
		{
			name:     "content is not a string",
			envelope: EnvelopeChatCompletions,
			body:     `{"choices":[{"message":{"content":{"a":1}}}]}`,
			expected: "",
		},
		{
			name:     "choices is an object",
			envelope: EnvelopeChatCompletions,
			body:     `{"choices":{"message":{"content":"x"}}}`,
			expected: "",
		},
		{
			name:     "wrong shape for envelope",
			envelope: EnvelopeResponses,
			body:     `{"choices":[{"message":{"content":"[]"}}]}`,
			expected: "",
		},
		{
			name:     "auto picks chat completions",
			envelope: EnvelopeAuto,
			body:     `{"choices":[{"message":{"content":"a"}}],"output":[{"content":[{"text":"b"}]}]}`,
			expected: "a",
		},
		{
			name:     "auto falls back to responses",
			envelope: EnvelopeAuto,
			body:     `{"output":[{"content":[{"text":"b"}]}]}`,
			expected: "b",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := Extract(tc.envelope, ProviderResponse{StatusCode: http.StatusOK, Body: []byte(tc.body)})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestExtract_UnexpectedStatus(t *testing.T) {
	_, err := Extract(EnvelopeChatCompletions, ProviderResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       []byte(`{"choices":[{"message":{"content":"[]"}}]}`),
	})
	require.Error(t, err)
	assert.Equal(t, ErrUnexpectedStatus, errors.Cause(err))
	assert.Contains(t, err.Error(), "429")
}

func TestExtract_UnparsableEnvelope(t *testing.T) {
	_, err := Extract(EnvelopeChatCompletions, ProviderResponse{StatusCode: http.StatusOK, Body: []byte("<html>bad gateway</html>")})
	require.Error(t, err)
	assert.Equal(t, ErrUnparsableEnvelope, errors.Cause(err))
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope("")
	require.NoError(t, err)
	assert.Equal(t, EnvelopeChatCompletions, env)

	env, err = ParseEnvelope(" Responses ")
	require.NoError(t, err)
	assert.Equal(t, EnvelopeResponses, env)

	env, err = ParseEnvelope("auto")
	require.NoError(t, err)
	assert.Equal(t, "auto", env.String())

	_, err = ParseEnvelope("soap")
	require.Error(t, err)
}
