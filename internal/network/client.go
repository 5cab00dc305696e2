package network

import (
	"net/url"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

const defaultTimeoutSeconds = 30

// Options configures the outbound client.
type Options struct {
	TimeoutSeconds int
	UserAgent      string
}

type Client struct {
	http      tls_client.HttpClient
	rotator   *Rotator
	userAgent string
}

func NewClient(rotator *Rotator, opts Options) (*Client, error) {
	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(timeout),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:      client,
		rotator:   rotator,
		userAgent: strings.TrimSpace(opts.UserAgent),
	}, nil
}

// Do sends req through the next healthy proxy, if any are configured.
func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	proxy, err := c.rotateProxy()
	if err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) rotateProxy() (*url.URL, error) {
	if c.rotator == nil {
		return nil, nil
	}
	proxy, err := c.rotator.Next()
	if err != nil {
		return nil, err
	}
	if err := c.http.SetProxy(proxy.String()); err != nil {
		return nil, err
	}
	return proxy, nil
}
