// Package site serves the HTML pages: the session-gated main view, the
// sign-in stub and the static policy pages.
package site

import (
	"context"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/okian/checkboard/internal/adapters/http/middleware"
	service "github.com/okian/checkboard/internal/app"
	"github.com/okian/checkboard/internal/domain/form"
	"github.com/okian/checkboard/pkg/logger"
)

// Pages is the app behaviour the site renders.
type Pages interface {
	Open(ctx context.Context, accessToken string) service.View
	Submit(ctx context.Context, viewID string, fields form.Edited) (service.View, error)
	Refresh(ctx context.Context, viewID string, fields form.Edited) (service.View, error)
}

// Handler renders the site.
type Handler struct {
	pages     Pages
	templates *templates
	docs      map[string]doc

	sessionCookie  string
	postSignInPath string
	signInHint     string
	csrfKey        []byte
	csrfSecure     bool
	protect        func(http.Handler) http.Handler

	logger logger.Logger
}

// New parses the embedded templates and documents and builds a Handler.
func New(pages Pages, opts ...Option) (*Handler, error) {
	const op = "site.new"

	h := &Handler{
		pages:          pages,
		sessionCookie:  "sb-access-token",
		postSignInPath: "/",
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Named("site")
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, wrap(op, ErrTemplate, err)
	}
	h.templates = t

	docs, err := renderDocs()
	if err != nil {
		return nil, wrap(op, ErrContent, err)
	}
	h.docs = docs

	if h.csrfKey != nil {
		if len(h.csrfKey) != 32 {
			return nil, newKind(op, ErrCSRFSetup)
		}
		h.protect = csrf.Protect(h.csrfKey,
			csrf.Secure(h.csrfSecure),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(h.handleCSRFFailure)),
		)
	}
	return h, nil
}

// Register attaches the site routes to mux. Paths not listed here are left
// to the mux's 404.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	route := func(pattern, endpoint string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(h.withCSRF(fn), endpoint))
	}

	route("GET /{$}", "root", h.handleRoot)
	route("GET /sign-in", "sign_in", h.handleSignInPage)
	route("POST /sign-in", "sign_in", h.handleSignIn)
	route("GET "+pathPrivacyPolicy, "privacy_policy", h.handleDoc(pathPrivacyPolicy))
	route("GET "+pathTermsOfService, "terms_of_service", h.handleDoc(pathTermsOfService))
	route("POST /submit", "submit", h.handleSubmit)
	route("POST /refresh", "refresh", h.handleRefresh)
}

func (h *Handler) withCSRF(next http.Handler) http.Handler {
	if h.protect == nil {
		return next
	}
	protected := h.protect(next)
	if h.csrfSecure {
		return protected
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
