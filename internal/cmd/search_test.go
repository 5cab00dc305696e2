package cmd

import (
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/spf13/afero"

	"github.com/jimezsa/gbifcli/internal/export"
	"github.com/jimezsa/gbifcli/internal/models"
	"github.com/jimezsa/gbifcli/internal/snapshot"
)

func TestResolveFormatWithOutputPathRespectsGlobalFlags(t *testing.T) {
	ctx := &Context{Out: io.Discard, JSONOutput: true}
	got, err := resolveFormat(ctx, "", "records.csv")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatJSON {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatJSON)
	}

	ctx = &Context{Out: io.Discard, PlainText: true}
	got, err = resolveFormat(ctx, "", "records.json")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatTSV {
		t.Fatalf("resolveFormat() = %q, want %q", got, export.FormatTSV)
	}
}

func TestResolveFormatFromExtension(t *testing.T) {
	ctx := &Context{Out: io.Discard}
	tests := map[string]export.Format{
		"records.json": export.FormatJSON,
		"records.TSV":  export.FormatTSV,
		"records.md":   export.FormatMarkdown,
		"records.csv":  export.FormatCSV,
		"records.out":  export.FormatCSV,
		"":             export.FormatCSV,
	}
	for path, want := range tests {
		got, err := resolveFormat(ctx, "", path)
		if err != nil {
			t.Fatalf("resolveFormat(%q) error = %v", path, err)
		}
		if got != want {
			t.Fatalf("resolveFormat(%q) = %q, want %q", path, got, want)
		}
	}

	got, err := resolveFormat(ctx, "md", "records.json")
	if err != nil {
		t.Fatalf("resolveFormat() error = %v", err)
	}
	if got != export.FormatMarkdown {
		t.Fatalf("resolveFormat() = %q, want explicit format to win", got)
	}
}

func TestSnapshotOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SnapshotOptions
		output  string
		wantErr bool
	}{
		{name: "empty", opts: SnapshotOptions{}},
		{name: "new only without seen", opts: SnapshotOptions{NewOnly: true}, wantErr: true},
		{name: "new out without seen", opts: SnapshotOptions{NewOut: "new.json"}, wantErr: true},
		{name: "update without seen", opts: SnapshotOptions{SeenUpdate: true}, wantErr: true},
		{name: "output equals seen", opts: SnapshotOptions{Seen: "seen.json"}, output: "seen.json", wantErr: true},
		{name: "new out equals seen", opts: SnapshotOptions{Seen: "seen.json", NewOut: "seen.json"}, wantErr: true},
		{name: "new out equals output", opts: SnapshotOptions{Seen: "seen.json", NewOut: "out.json"}, output: "out.json", wantErr: true},
		{name: "valid", opts: SnapshotOptions{Seen: "seen.json", NewOut: "new.json", NewOnly: true, SeenUpdate: true}, output: "out.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate(tt.output)
			if tt.wantErr && err == nil {
				t.Fatalf("validate() error = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("validate() error = %v", err)
			}
		})
	}
}

func TestUpdateSnapshotCreatesFileAndMerges(t *testing.T) {
	store := snapshot.NewStore(afero.NewMemMapFs())
	path := "/data/seen.json"

	input := []models.Record{{"key": 1, "species": "Quercus alba"}}
	if err := updateSnapshot(store, path, input); err != nil {
		t.Fatalf("updateSnapshot() error = %v", err)
	}
	got, err := store.Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}

	// Same record again is a no-op.
	if err := updateSnapshot(store, path, input); err != nil {
		t.Fatalf("updateSnapshot() (2nd) error = %v", err)
	}
	got, err = store.Read(path)
	if err != nil {
		t.Fatalf("Read() (2nd) error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) after 2nd update = %d, want 1", len(got))
	}

	input = append(input, models.Record{"key": 2, "species": "Quercus rubra"})
	if err := updateSnapshot(store, path, input); err != nil {
		t.Fatalf("updateSnapshot() (3rd) error = %v", err)
	}
	got, err = store.Read(path)
	if err != nil {
		t.Fatalf("Read() (3rd) error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) after 3rd update = %d, want 2", len(got))
	}
}

func TestFormatSummary(t *testing.T) {
	if got, want := formatSummary(nil, 7), "summary: records=0 total=7 species=0"; got != want {
		t.Fatalf("formatSummary() = %q, want %q", got, want)
	}

	records := []models.Record{
		{"species": "Quercus rubra"},
		{"species": "Quercus alba"},
		{"species": "Quercus rubra"},
		{"scientificName": "Quercus"},
	}
	want := "summary: records=4 total=10 species=3 top=Quercus rubra:2, Quercus alba:1, unknown:1"
	if got := formatSummary(records, 10); got != want {
		t.Fatalf("formatSummary() = %q, want %q", got, want)
	}
}

func TestFormatSummaryTruncatesSpecies(t *testing.T) {
	var records []models.Record
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, models.Record{"species": name})
	}
	got := formatSummary(records, len(records))
	if !strings.HasSuffix(got, "top=a:1, b:1, c:1, d:1, e:1, +2 more") {
		t.Fatalf("formatSummary() = %q, want five entries and +2 more", got)
	}
}

func TestSearchRunWritesRecordsAndSummary(t *testing.T) {
	doer := staticDoer(twoRecordPage)
	env := newTestEnv(t, doer)

	cmd := &SearchCmd{
		Query:         "Quercus",
		Years:         "1990-2005",
		OutputOptions: OutputOptions{Format: "json"},
	}
	if err := cmd.Run(env.ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(doer.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(doer.requests))
	}
	params := doer.requests[0].URL.Query()
	want := url.Values{
		"q":                  {"Quercus"},
		"year":               {"1990,2005"},
		"basisOfRecord":      {"PRESERVED_SPECIMEN"},
		"hasCoordinate":      {"true"},
		"hasGeospatialIssue": {"false"},
		"country":            {"US"},
		"offset":             {"0"},
		"limit":              {"300"},
	}
	if params.Encode() != want.Encode() {
		t.Fatalf("params = %q, want %q", params.Encode(), want.Encode())
	}

	var got []map[string]any
	if err := json.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, env.out.String())
	}
	if len(got) != 2 || got[0]["species"] != "Quercus alba" {
		t.Fatalf("output = %v, want both records in API order", got)
	}

	wantSummary := "summary: records=2 total=2 species=2 top=Quercus alba:1, Quercus rubra:1"
	if !strings.Contains(env.err.String(), wantSummary) {
		t.Fatalf("stderr = %q, want %q", env.err.String(), wantSummary)
	}
}

func TestSearchRunAllFollowsPages(t *testing.T) {
	doer := &stubDoer{respond: func(req *fhttp.Request) (int, string) {
		switch req.URL.Query().Get("offset") {
		case "0":
			return 200, `{"offset":0,"limit":1,"endOfRecords":false,"count":2,"results":[{"key":1,"species":"Quercus alba","year":1999}]}`
		default:
			return 200, `{"offset":1,"limit":1,"endOfRecords":true,"count":2,"results":[{"key":2,"species":"Quercus rubra","year":2001}]}`
		}
	}}
	env := newTestEnv(t, doer)

	cmd := &SearchCmd{
		Query:         "Quercus",
		All:           true,
		FilterOptions: FilterOptions{Limit: 1},
		OutputOptions: OutputOptions{Format: "csv"},
	}
	if err := cmd.Run(env.ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(doer.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(doer.requests))
	}
	want := "species,year,country,stateProvince\nQuercus alba,1999,,\nQuercus rubra,2001,,\n"
	if got := env.out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestSearchRunAPIErrorIsReturned(t *testing.T) {
	doer := &stubDoer{respond: func(*fhttp.Request) (int, string) {
		return 400, `{"message":"Invalid parameter basisOfRecord"}`
	}}
	env := newTestEnv(t, doer)

	err := (&SearchCmd{Query: "Quercus", OutputOptions: OutputOptions{Format: "json"}}).Run(env.ctx)
	if err == nil {
		t.Fatalf("Run() error = nil, want API error")
	}
	if !strings.Contains(err.Error(), "Invalid parameter basisOfRecord") {
		t.Fatalf("Run() error = %v, want API message", err)
	}
	if env.out.Len() != 0 {
		t.Fatalf("stdout = %q, want nothing written on error", env.out.String())
	}
}

func TestSearchRunWithSnapshot(t *testing.T) {
	doer := staticDoer(twoRecordPage)
	env := newTestEnv(t, doer)

	store := snapshot.NewStore(env.fs)
	if err := store.Write("/seen.json", []models.Record{{"key": 101, "species": "Quercus alba"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cmd := &SearchCmd{
		Query:         "Quercus",
		OutputOptions: OutputOptions{Format: "json"},
		SnapshotOptions: SnapshotOptions{
			Seen:       "/seen.json",
			NewOnly:    true,
			NewOut:     "/new.json",
			SeenUpdate: true,
		},
	}
	if err := cmd.Run(env.ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(env.out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 1 || got[0]["species"] != "Quercus rubra" {
		t.Fatalf("output = %v, want only the unseen record", got)
	}

	newRecords, err := store.Read("/new.json")
	if err != nil {
		t.Fatalf("Read(new) error = %v", err)
	}
	if len(newRecords) != 1 {
		t.Fatalf("len(new) = %d, want 1", len(newRecords))
	}

	seenRecords, err := store.Read("/seen.json")
	if err != nil {
		t.Fatalf("Read(seen) error = %v", err)
	}
	if len(seenRecords) != 2 {
		t.Fatalf("len(seen) = %d, want 2 after update", len(seenRecords))
	}

	if !strings.Contains(env.err.String(), "summary: records=1 total=2") {
		t.Fatalf("stderr = %q, want summary of unseen records", env.err.String())
	}
}

func TestSearchRunWritesOutputFile(t *testing.T) {
	env := newTestEnv(t, staticDoer(twoRecordPage))

	cmd := &SearchCmd{Query: "Quercus", OutputOptions: OutputOptions{Output: "/out/records.json"}}
	if err := env.fs.MkdirAll("/out", 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := cmd.Run(env.ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.out.Len() != 0 {
		t.Fatalf("stdout = %q, want empty when writing to a file", env.out.String())
	}

	records, err := snapshot.NewStore(env.fs).Read("/out/records.json")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
}

func TestSearchRunEmptyResultsPrintEmptyJSONArray(t *testing.T) {
	const emptyPage = `{"offset":0,"limit":300,"endOfRecords":true,"count":0,"results":[]}`
	tests := map[string]func(env testEnv) error{
		"single page": func(env testEnv) error {
			return (&SearchCmd{Query: "Nope"}).Run(env.ctx)
		},
		"all pages": func(env testEnv) error {
			return (&SearchCmd{Query: "Nope", All: true}).Run(env.ctx)
		},
		"epochs": func(env testEnv) error {
			return (&EpochsCmd{EpochOptions: EpochOptions{Query: "Nope", Start: 1990, End: 2010, Size: 10}}).Run(env.ctx)
		},
	}

	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, staticDoer(emptyPage))
			env.ctx.JSONOutput = true
			if err := run(env); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := env.out.String(); got != "[]\n" {
				t.Fatalf("stdout = %q, want %q", got, "[]\n")
			}
		})
	}
}

func TestSearchRunReadsQueryFileFromContextFs(t *testing.T) {
	doer := staticDoer(twoRecordPage)
	env := newTestEnv(t, doer)
	if err := afero.WriteFile(env.fs, "/queries/oaks.yaml", []byte("state_province: Ohio\ncountry: [US, CA]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd := &SearchCmd{
		Query:         "Quercus",
		FilterOptions: FilterOptions{QueryFile: "/queries/oaks.yaml"},
		OutputOptions: OutputOptions{Format: "json"},
	}
	if err := cmd.Run(env.ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	params := doer.requests[0].URL.Query()
	if got := params.Get("stateProvince"); got != "Ohio" {
		t.Fatalf("stateProvince = %q, want Ohio", got)
	}
	if got := params["country"]; len(got) != 2 || got[0] != "US" || got[1] != "CA" {
		t.Fatalf("country = %v, want [US CA]", got)
	}
}
