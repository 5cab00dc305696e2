package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/jimezsa/gbifcli/internal/config"
	"github.com/jimezsa/gbifcli/internal/network"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Validate proxies against the GBIF API."`
}

type ProxyCheckCmd struct {
	Target  string `help:"Target URL (default: configured API with limit=0)."`
	Timeout int    `help:"Timeout in seconds." default:"15"`
	Proxies string `help:"Comma-separated proxy URLs." env:"GBIFCLI_PROXIES"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(ctx.fs(), p.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return fmt.Errorf("no proxies configured")
	}

	target := strings.TrimSpace(p.Target)
	if target == "" {
		target = strings.TrimRight(ctx.Config.BaseURL, "?") + "?limit=0"
	}

	results := make([]ProxyCheckResult, 0, len(proxies))
	for _, proxy := range proxies {
		results = append(results, p.check(ctx, proxy, target))
	}

	return writeProxyResults(ctx, results)
}

func (p *ProxyCheckCmd) check(ctx *Context, proxy string, target string) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy, Status: "error"}

	rotator, err := network.NewRotator([]string{proxy}, 5*time.Minute)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	client, err := network.NewClient(rotator, network.Options{
		TimeoutSeconds: p.Timeout,
		UserAgent:      userAgent(ctx),
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	reqCtx, cancel := context.WithTimeout(ctx.context(), time.Duration(p.Timeout)*time.Second)
	defer cancel()
	req, err := fhttp.NewRequestWithContext(reqCtx, fhttp.MethodGet, target, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	_ = resp.Body.Close()

	ctx.Logger.Debug().Str("proxy", proxy).Int("status", resp.StatusCode).Msg("proxy check")
	result.LatencyMS = time.Since(start).Milliseconds()
	result.Status = fmt.Sprintf("%d", resp.StatusCode)
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			line := []string{res.Proxy, res.Status, fmt.Sprintf("%d", res.LatencyMS), res.Error}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Proxy, res.Status, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
