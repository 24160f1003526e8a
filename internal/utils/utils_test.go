package utils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSource(t *testing.T) {
	tests := []struct {
		input       string
		expected    string
		expectedErr error
	}{
		{input: "", expectedErr: ErrInputEmpty},
		{input: "  \n\t ", expectedErr: ErrInputEmpty},
		{input: "  echo $x; \n", expected: "echo $x;"},
		{input: strings.Repeat("a", MaxSourceLength), expected: strings.Repeat("a", MaxSourceLength)},
		{input: strings.Repeat("a", MaxSourceLength+1), expectedErr: ErrInputTooLarge},
		{input: strings.Repeat("é", MaxSourceLength), expected: strings.Repeat("é", MaxSourceLength)},
	}

	for _, tc := range tests {
		code, err := ValidateSource(tc.input)
		if tc.expectedErr != nil {
			require.Equal(t, tc.expectedErr, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.expected, code)
	}
}

func TestGenerateChatTitle(t *testing.T) {
	now := time.Date(2025, 12, 9, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected string
	}{
		{input: "<?php $q = $_GET['q'];\necho $q;", expected: "$q = $_GET['q'];"},
		{input: "SELECT 1", expected: "SELECT 1"},
		{input: "<?php\n$x = 1;", expected: "Code Scan - 14:05"},
		{input: strings.Repeat("x", 60), expected: strings.Repeat("x", 47) + "..."},
		{input: strings.Repeat("x", 50), expected: strings.Repeat("x", 50)},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, GenerateChatTitle(tc.input, now))
	}
}

func TestPostJSON(t *testing.T) {
	const output string = `{"ok":true}`
	// Create a test HTTP server that echoes what it received
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(output))
	}))
	defer ts.Close()

	status, data, err := PostJSON(context.Background(), ts.Client(), ts.URL, map[string]string{"Authorization": "Bearer k"}, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, output, string(data))
}

func TestPostJSON_NonOKIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	status, _, err := PostJSON(context.Background(), ts.Client(), ts.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestPostJSON_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, _, err := PostJSON(context.Background(), http.DefaultClient, url, nil, nil)
	require.Error(t, err)
}
