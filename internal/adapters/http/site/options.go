package site

import "github.com/okian/checkboard/pkg/logger"

// Option configures a Handler.
type Option func(*Handler)

// WithSessionCookie names the cookie that carries the access token.
func WithSessionCookie(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.sessionCookie = name
		}
	}
}

// WithPostSignInPath sets where the sign-in stub redirects.
func WithPostSignInPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.postSignInPath = path
		}
	}
}

// WithSignInHint adds a line of text under the sign-in stub, such as how to
// obtain a session cookie in development.
func WithSignInHint(hint string) Option {
	return func(h *Handler) {
		h.signInHint = hint
	}
}

// WithCSRF enables CSRF protection on every page with the given 32 byte key.
// secure marks the CSRF cookie Secure and enforces the HTTPS referer check.
func WithCSRF(key []byte, secure bool) Option {
	return func(h *Handler) {
		h.csrfKey = key
		h.csrfSecure = secure
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
