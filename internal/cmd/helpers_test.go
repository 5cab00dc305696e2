package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jimezsa/gbifcli/internal/config"
	"github.com/jimezsa/gbifcli/internal/ui"
)

type stubDoer struct {
	requests []*fhttp.Request
	respond  func(req *fhttp.Request) (int, string)
}

func (s *stubDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	s.requests = append(s.requests, req)
	status, body := s.respond(req)
	header := fhttp.Header{}
	header.Set("Content-Type", "application/json")
	return &fhttp.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func staticDoer(body string) *stubDoer {
	return &stubDoer{respond: func(*fhttp.Request) (int, string) { return 200, body }}
}

type testEnv struct {
	ctx *Context
	out *bytes.Buffer
	err *bytes.Buffer
	fs  afero.Fs
}

func newTestEnv(t *testing.T, doer *stubDoer) testEnv {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	fs := afero.NewMemMapFs()
	cfg := config.Config{
		BaseURL:              "https://api.example.org/v1/occurrence/search",
		DefaultCountry:       "US",
		DefaultBasisOfRecord: "PRESERVED_SPECIMEN",
		PageSize:             300,
		TimeoutSeconds:       5,
	}
	ctx := &Context{
		Out:     out,
		Err:     errOut,
		UI:      ui.New(out, errOut, ui.ColorNever, true),
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Version: "test",
		Fs:      fs,
	}
	if doer != nil {
		ctx.Doer = doer
	}
	return testEnv{ctx: ctx, out: out, err: errOut, fs: fs}
}

const twoRecordPage = `{
  "offset": 0,
  "limit": 300,
  "endOfRecords": true,
  "count": 2,
  "results": [
    {"key": 101, "species": "Quercus alba", "year": 1999, "country": "United States of America", "stateProvince": "New York"},
    {"key": 102, "species": "Quercus rubra", "year": 2001, "country": "United States of America", "stateProvince": "Ohio"}
  ]
}`
