package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"code-scanner/internal/report"
	"code-scanner/internal/utils"
)

// DefaultTimeout bounds one provider call
const DefaultTimeout = 60 * time.Second

// Kind classifies a provider failure
type Kind string

const (
	KindStatus    Kind = "status"
	KindTransport Kind = "transport"
	KindTimeout   Kind = "timeout"
	KindEnvelope  Kind = "envelope"
)

// ProviderError is returned by Scan for every failure of the provider call.
type ProviderError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("provider unavailable (%s %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider unavailable (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Cause() error  { return e.Err }
func (e *ProviderError) Unwrap() error { return e.Err }

// Config describes the model provider
type Config struct {
	URL      string
	APIKey   string
	Model    string
	Envelope report.Envelope
	Timeout  time.Duration
}

// Scanner sends source code to the model provider and turns its answer into a report
type Scanner struct {
	cfg    Config
	client *http.Client
}

// New returns a Scanner. A nil client gets a client bounded by cfg.Timeout.
func New(cfg Config, client *http.Client) *Scanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Scanner{cfg: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionsRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responsesRequest struct {
	Model       string        `json:"model"`
	Input       []chatMessage `json:"input"`
	Temperature float64       `json:"temperature"`
}

// BuildPayload returns the request body sent for source
func (s *Scanner) BuildPayload(source string) ([]byte, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPromptPrefix + source},
	}

	var payload interface{}
	if s.cfg.Envelope == report.EnvelopeResponses {
		payload = responsesRequest{Model: s.cfg.Model, Input: messages}
	} else {
		payload = chatCompletionsRequest{
			Model:          s.cfg.Model,
			Messages:       messages,
			ResponseFormat: responseFormat{Type: "json_object"},
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode provider payload")
	}
	return data, nil
}

// Scan asks the provider to review source. Any failure is a *ProviderError;
// callers decide how to degrade, see FailOpen.
func (s *Scanner) Scan(ctx context.Context, source string) (report.Report, error) {
	payload, err := s.BuildPayload(source)
	if err != nil {
		return report.Report{}, &ProviderError{Kind: KindTransport, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	headers := map[string]string{"Authorization": "Bearer " + s.cfg.APIKey}
	status, body, err := utils.PostJSON(ctx, s.client, s.cfg.URL, headers, payload)
	if err != nil {
		kind := KindTransport
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		return report.Report{}, &ProviderError{Kind: kind, StatusCode: status, Err: err}
	}

	rep, err := report.FromResponse(s.cfg.Envelope, report.ProviderResponse{StatusCode: status, Body: body})
	if err != nil {
		kind := KindEnvelope
		if errors.Cause(err) == report.ErrUnexpectedStatus {
			kind = KindStatus
		}
		return report.Report{}, &ProviderError{Kind: kind, StatusCode: status, Err: err}
	}
	return rep, nil
}

// FailOpen downgrades a failed scan to the empty report. The result cannot be
// told apart from a clean scan.
func FailOpen(rep report.Report, err error) report.Report {
	if err != nil {
		return report.Empty()
	}
	return rep
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
