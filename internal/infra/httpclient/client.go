package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New returns a client with a bounded timeout. A nil transport gets a pooled
// transport with dial and TLS handshake limits.
func New(timeout time.Duration, transport http.RoundTripper) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if transport == nil {
		transport = NewTransport()
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
