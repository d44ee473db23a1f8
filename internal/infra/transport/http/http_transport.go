package http

import (
	"net/http"
	"time"
)

// HTTPTransportConfig contains configuration parameters for outgoing HTTP requests.
type HTTPTransportConfig struct {
	// Timeout bounds a whole request including reading the body; 0 disables it
	Timeout time.Duration `env:"TIMEOUT" default:"0s"`
	// IdleConnTimeout is how long an idle keep-alive connection stays open
	IdleConnTimeout time.Duration `env:"IDLE_CONN_TIMEOUT" default:"90s"`

	MaxIdleConnsPerHost int `env:"MAX_IDLE_CONNS_PER_HOST" default:"4"`
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// NewClient builds an http.Client whose transport traces and logs every
// request and authorizes those sent to authHost. If base is nil, a clone of
// http.DefaultTransport configured from cfg is used. tokens may be nil for
// anonymous clients.
func NewClient(cfg HTTPTransportConfig, base http.RoundTripper, tokens TokenSource, authHost string) *http.Client {
	if base == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
		transport.IdleConnTimeout = cfg.IdleConnTimeout
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
		base = transport
	}

	rt := LoggingTransport(base, nil)
	if tokens != nil {
		rt = AuthorizingTransport(rt, tokens, authHost)
	}

	rt = TracingTransport(rt)

	//nolint:exhaustruct
	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}
}
