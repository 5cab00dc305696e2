package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"

	"github.com/jimezsa/gbifcli/internal/config"
	"github.com/jimezsa/gbifcli/internal/gbif"
	"github.com/jimezsa/gbifcli/internal/models"
	"github.com/jimezsa/gbifcli/internal/network"
)

// FilterOptions are the search filters shared by every command that
// queries the API.
type FilterOptions struct {
	Country    string   `help:"Country filter (ISO 3166-1 alpha-2)." env:"GBIFCLI_DEFAULT_COUNTRY"`
	Basis      string   `name:"basis-of-record" help:"Basis of record filter, e.g. PRESERVED_SPECIMEN, HUMAN_OBSERVATION."`
	NoDefaults bool     `help:"Do not apply the preserved-specimen defaults (basis of record, coordinates, country)."`
	Param      []string `short:"p" sep:"none" help:"Extra API parameter as key=value; repeatable. snake_case keys are converted to camelCase. An empty value removes the parameter."`
	QueryFile  string   `help:"JSON5 or YAML file with an object of API parameters."`
	Limit      int      `help:"Page size (1-300)." env:"GBIFCLI_PAGE_SIZE"`
	Proxies    string   `help:"Comma-separated proxy URLs." env:"GBIFCLI_PROXIES"`
}

type param struct {
	key   string
	value string
}

// buildQuery assembles the API query for taxon text. Precedence, lowest
// first: specimen defaults, config defaults, filter flags, query file,
// --param values.
func buildQuery(fs afero.Fs, cfg config.Config, text string, filters FilterOptions) (gbif.Query, error) {
	query := gbif.NewQuery()
	if !filters.NoDefaults {
		query = gbif.SpecimenQuery(text, 0, 0)
		query.Del(gbif.ParamYear)
		setIfNotEmpty(&query, gbif.ParamCountry, cfg.DefaultCountry)
		setIfNotEmpty(&query, gbif.ParamBasisOfRecord, cfg.DefaultBasisOfRecord)
	}

	if strings.TrimSpace(text) != "" {
		query.Set(gbif.ParamQuery, strings.TrimSpace(text))
	}
	setIfNotEmpty(&query, gbif.ParamCountry, strings.ToUpper(strings.TrimSpace(filters.Country)))
	setIfNotEmpty(&query, gbif.ParamBasisOfRecord, strings.ToUpper(strings.TrimSpace(filters.Basis)))

	pageSize := defaultInt(filters.Limit, cfg.PageSize)
	if pageSize > 0 {
		query.Set(gbif.ParamLimit, strconv.Itoa(pageSize))
	}

	if strings.TrimSpace(filters.QueryFile) != "" {
		fileParams, err := loadQueryFile(fs, filters.QueryFile)
		if err != nil {
			return query, err
		}
		applyParams(&query, fileParams)
	}

	flagParams, err := parseParams(filters.Param)
	if err != nil {
		return query, err
	}
	applyParams(&query, flagParams)

	if err := query.Validate(); err != nil {
		return query, err
	}
	return query, nil
}

func setIfNotEmpty(query *gbif.Query, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	query.Set(key, value)
}

// applyParams sets every key from params, replacing earlier values.
// Repeated keys within params accumulate.
func applyParams(query *gbif.Query, params []param) {
	replaced := map[string]bool{}
	for _, p := range params {
		if !replaced[p.key] {
			query.Del(p.key)
			replaced[p.key] = true
		}
		if p.value == "" {
			continue
		}
		query.Add(p.key, p.value)
	}
}

func parseParams(raw []string) ([]param, error) {
	params := make([]param, 0, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q: want key=value", item)
		}
		key = apiKey(key)
		if key == "" {
			return nil, fmt.Errorf("invalid --param %q: empty key", item)
		}
		params = append(params, param{key: key, value: strings.TrimSpace(value)})
	}
	return params, nil
}

// apiKey converts snake_case and kebab-case names to the API's camelCase.
func apiKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if !strings.ContainsAny(key, "_- ") {
		return key
	}
	return strcase.ToLowerCamel(key)
}

func loadQueryFile(fs afero.Fs, path string) ([]param, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read --query-file %q: %w", path, err)
	}

	var decoded map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &decoded)
	default:
		err = json5.Unmarshal(data, &decoded)
	}
	if err != nil {
		return nil, fmt.Errorf("parse --query-file %q: %w", path, err)
	}
	if decoded == nil {
		return nil, fmt.Errorf("invalid --query-file %q: expected an object of parameters", path)
	}

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var params []param
	for _, rawKey := range keys {
		key := apiKey(rawKey)
		switch value := decoded[rawKey].(type) {
		case []any:
			if len(value) == 0 {
				params = append(params, param{key: key})
			}
			for idx, item := range value {
				if !isScalar(item) {
					return nil, fmt.Errorf("invalid --query-file %q: %s[%d] must be a scalar", path, rawKey, idx)
				}
				params = append(params, param{key: key, value: models.FormatValue(item)})
			}
		default:
			if !isScalar(value) {
				return nil, fmt.Errorf("invalid --query-file %q: %s must be a scalar or a list of scalars", path, rawKey)
			}
			params = append(params, param{key: key, value: models.FormatValue(value)})
		}
	}
	return params, nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case nil, string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}

// parseYears accepts "1990", "1990,2000" or "1990-2000".
func parseYears(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '-' })
	if len(parts) < 1 || len(parts) > 2 {
		return "", fmt.Errorf("invalid --years %q: want YEAR or MIN,MAX", raw)
	}
	years := make([]int, 0, 2)
	for _, part := range parts {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return "", fmt.Errorf("invalid --years %q: %w", raw, err)
		}
		years = append(years, year)
	}
	if len(years) == 1 {
		return strconv.Itoa(years[0]), nil
	}
	if years[1] < years[0] {
		return "", fmt.Errorf("invalid --years %q: max before min", raw)
	}
	return gbif.YearRange(years[0], years[1]), nil
}

func userAgent(ctx *Context) string {
	version := strings.Fields(ctx.Version)
	if len(version) == 0 {
		return "gbifcli"
	}
	return "gbifcli/" + version[0]
}

// newGBIFClient returns an API client over ctx.Doer, or over a new
// network client routed through any configured proxies.
func newGBIFClient(ctx *Context, proxiesFlag string) (*gbif.Client, error) {
	doer := ctx.Doer
	if doer == nil {
		proxies, err := config.LoadProxies(ctx.fs(), proxiesFlag)
		if err != nil {
			return nil, err
		}

		var rotator *network.Rotator
		if len(proxies) > 0 {
			rotator, err = network.NewRotator(proxies, 10*time.Minute)
			if err != nil {
				return nil, err
			}
			ctx.Logger.Debug().Int("proxies", rotator.Len()).Msg("proxy rotation enabled")
		}

		client, err := network.NewClient(rotator, network.Options{
			TimeoutSeconds: ctx.Config.TimeoutSeconds,
			UserAgent:      userAgent(ctx),
		})
		if err != nil {
			return nil, err
		}
		doer = client
	}

	return gbif.NewClient(doer,
		gbif.WithBaseURL(ctx.Config.BaseURL),
		gbif.WithLogger(ctx.Logger),
	), nil
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
