package utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxSourceLength is the largest accepted submission, in characters
const MaxSourceLength = 20000

// maxResponseSize bounds how much of a provider answer is read
const maxResponseSize = 4 << 20

const maxTitleLength = 50

var (
	ErrInputEmpty    = errors.New("Please provide source code.")
	ErrInputTooLarge = errors.New("Code too large (max 20k characters).")
)

// ValidateSource trims the submitted code and checks its length.
func ValidateSource(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInputEmpty
	}
	if utf8.RuneCountInString(code) > MaxSourceLength {
		return "", ErrInputTooLarge
	}
	return code, nil
}

// GenerateChatTitle derives a chat title from the first line of the code
// Example:
//
// "<?php $q = $_GET['q'];" -> "$q = $_GET['q'];"
// "" -> "Code Scan - 14:05"
func GenerateChatTitle(code string, now time.Time) string {
	firstLine, _, _ := strings.Cut(code, "\n")
	title := strings.TrimSpace(firstLine)
	for _, tag := range []string{"<?php", "<?", "?>"} {
		title = strings.ReplaceAll(title, tag, "")
	}
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength-3]) + "..."
	}
	if title == "" {
		return "Code Scan - " + now.Format("15:04")
	}
	return title
}

// PostJSON sends body to url and returns the status code and response body.
// Non 200 statuses are not errors, only transport failures are.
// It is a variable so tests can stub the outbound call.
var PostJSON = func(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, errors.Wrap(err, "cannot build request")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "POST %s", url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "cannot read response body")
	}
	return resp.StatusCode, data, nil
}
