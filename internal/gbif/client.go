package gbif

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog"

	"github.com/jimezsa/gbifcli/internal/models"
)

// DefaultBaseURL is the occurrence search endpoint.
const DefaultBaseURL = "https://api.gbif.org/v1/occurrence/search"

// maxBodySize caps how much of a response is read. A full page of 300
// records is a few megabytes.
const maxBodySize = 64 << 20

// Doer sends a single HTTP request.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

type Client struct {
	doer    Doer
	baseURL string
	logger  zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = strings.TrimSpace(baseURL)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(doer Doer, opts ...Option) *Client {
	c := &Client{
		doer:    doer,
		baseURL: DefaultBaseURL,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the request URL for query.
func (c *Client) URL(query Query) string {
	base := strings.TrimRight(c.baseURL, "?&")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + query.Encode()
}

// Records holds one parsed page of an occurrence search.
type Records struct {
	URL   string
	Query Query

	// Data is the complete decoded response body.
	Data map[string]any

	Results      []models.Record
	Offset       int
	Limit        int
	Count        int
	EndOfRecords bool
}

// Records performs exactly one GET for query and parses the response.
func (c *Client) Records(ctx context.Context, query Query) (*Records, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	target := c.URL(query)
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug().Str("url", target).Err(err).Msg("gbif request failed")
		return nil, &RequestError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("gbif request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    summarizeBody(resp.Header.Get("Content-Type"), body),
		}
	}

	records, err := parseRecords(body)
	if err != nil {
		return nil, &ParseError{URL: target, Err: err}
	}
	records.URL = target
	records.Query = query.Clone()
	return records, nil
}

func parseRecords(body []byte) (*Records, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if data == nil {
		return nil, errors.New("response body is not a JSON object")
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	rawResults, ok := data["results"]
	if !ok {
		return nil, errors.New(`missing "results"`)
	}
	items, ok := rawResults.([]any)
	if !ok {
		return nil, errors.New(`"results" is not an array`)
	}
	results := make([]models.Record, 0, len(items))
	for idx, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("results[%d] is not an object", idx)
		}
		results = append(results, models.Record(record))
	}

	records := &Records{
		Data:    data,
		Results: results,
	}

	var err error
	if records.Offset, _, err = intField(data, "offset"); err != nil {
		return nil, err
	}
	if records.Limit, _, err = intField(data, "limit"); err != nil {
		return nil, err
	}
	var hasCount bool
	if records.Count, hasCount, err = intField(data, "count"); err != nil {
		return nil, err
	}

	switch end := data["endOfRecords"].(type) {
	case bool:
		records.EndOfRecords = end
	case nil:
		// Older responses omit the flag; derive it from the count.
		records.EndOfRecords = len(results) == 0 ||
			(hasCount && records.Offset+len(results) >= records.Count)
	default:
		return nil, fmt.Errorf(`"endOfRecords" is %T, want bool`, end)
	}

	return records, nil
}

func intField(data map[string]any, key string) (int, bool, error) {
	value, ok := data[key]
	if !ok || value == nil {
		return 0, false, nil
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, false, fmt.Errorf("%q is %T, want number", key, value)
	}
	n, err := number.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("%q: %w", key, err)
	}
	return int(n), true, nil
}
