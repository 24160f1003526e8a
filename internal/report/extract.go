package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Envelope selects the provider response shape the model text is wrapped in.
type Envelope int

const (
	// EnvelopeChatCompletions reads choices[0].message.content
	EnvelopeChatCompletions Envelope = iota
	// EnvelopeResponses reads output[0].content[0].text
	EnvelopeResponses
	// EnvelopeAuto tries the chat completions shape, then the responses shape
	EnvelopeAuto
)

var (
	// ErrUnexpectedStatus is returned when the provider did not answer 200
	ErrUnexpectedStatus = errors.New("provider returned a non 200 status")
	// ErrUnparsableEnvelope is returned when the provider body is not JSON
	ErrUnparsableEnvelope = errors.New("provider body is not valid JSON")
)

// ProviderResponse is the raw outcome of the outbound model call
type ProviderResponse struct {
	StatusCode int
	Body       []byte
}

// ParseEnvelope maps a configuration value to an Envelope
func ParseEnvelope(s string) (Envelope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chat_completions", "chat-completions":
		return EnvelopeChatCompletions, nil
	case "responses":
		return EnvelopeResponses, nil
	case "auto":
		return EnvelopeAuto, nil
	}
	return 0, fmt.Errorf("unknown provider envelope %q", s)
}

func (e Envelope) String() string {
	switch e {
	case EnvelopeChatCompletions:
		return "chat_completions"
	case EnvelopeResponses:
		return "responses"
	case EnvelopeAuto:
		return "auto"
	}
	return fmt.Sprintf("envelope(%d)", int(e))
}

// Extract returns the model output text carried by resp.
// A missing field path yields an empty string, not an error.
func Extract(env Envelope, resp ProviderResponse) (string, error) {
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}
	if !json.Valid(resp.Body) {
		return "", errors.WithStack(ErrUnparsableEnvelope)
	}
	body := json.RawMessage(resp.Body)

	switch env {
	case EnvelopeChatCompletions:
		return chatCompletionsText(body), nil
	case EnvelopeResponses:
		return responsesText(body), nil
	default:
		if text := chatCompletionsText(body); text != "" {
			return text, nil
		}
		return responsesText(body), nil
	}
}

func chatCompletionsText(body json.RawMessage) string {
	return stringValue(field(index(field(body, "choices"), 0), "message"), "content")
}

func responsesText(body json.RawMessage) string {
	content := field(index(field(body, "output"), 0), "content")
	return stringValue(index(content, 0), "text")
}

func field(raw json.RawMessage, name string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[name]
}

func index(raw json.RawMessage, i int) json.RawMessage {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || i >= len(arr) {
		return nil
	}
	return arr[i]
}

func stringValue(raw json.RawMessage, name string) string {
	var s string
	if err := json.Unmarshal(field(raw, name), &s); err != nil {
		return ""
	}
	return s
}
