// This package provides the HTTP client used for the remote APIs
// (iNaturalist, JSONBin). It sets conservative timeouts, a User-Agent
// header and wraps the transport for OpenTelemetry.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"go.ntppool.org/common/version"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout is the overall request timeout, including reading
// the response body.
const DefaultTimeout = 60 * time.Second

// Product is the first User-Agent token.
var Product = "mothmailer"

// New returns a client with explicit transport timeouts. A zero
// timeout means DefaultTimeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 40 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &http.Client{
		Transport: &userAgentTransport{
			agent: UserAgent(),
			next:  otelhttp.NewTransport(transport),
		},
		Timeout: timeout,
	}
}

// UserAgent is sent on every request; iNaturalist asks API users to
// identify themselves.
func UserAgent() string {
	return Product + "/" + version.Version()
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}
