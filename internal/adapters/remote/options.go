package remote

import (
	"net/http"
	"time"
)

// Option applies a configuration option to the RESTClient.
type Option func(*RESTClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *RESTClient) {
		if c != nil {
			r.http = c
		}
	}
}

// WithTimeout bounds every call made by the client.
func WithTimeout(d time.Duration) Option {
	return func(r *RESTClient) {
		if d > 0 {
			r.timeout = d
		}
	}
}
