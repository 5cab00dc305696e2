package gbif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageLen = 200

// RequestError reports a transport failure or a non-2xx response.
// StatusCode is 0 when no response was received.
type RequestError struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString("gbif request")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not a valid search result.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gbif response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// summarizeBody extracts a short human readable message from an error
// response. GBIF answers API errors as JSON or plain text; gateways in
// front of it answer with HTML pages.
func summarizeBody(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	contentType = strings.ToLower(contentType)
	if strings.Contains(contentType, "json") || body[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err == nil {
			for _, key := range []string{"message", "error", "errorMessage"} {
				if text, ok := payload[key].(string); ok && strings.TrimSpace(text) != "" {
					return truncate(cleanText(text), maxMessageLen)
				}
			}
		}
	}

	if strings.Contains(contentType, "html") || body[0] == '<' {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			for _, selector := range []string{"title", "h1", "body"} {
				if text := cleanText(doc.Find(selector).First().Text()); text != "" {
					return truncate(text, maxMessageLen)
				}
			}
		}
	}

	return truncate(cleanText(string(body)), maxMessageLen)
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return strings.TrimSpace(value[:cut]) + "..."
}
