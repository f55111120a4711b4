package site

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/okian/checkboard/pkg/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// csrfFieldName is gorilla/csrf's default form field.
const csrfFieldName = "gorilla.csrf.Token"

// Page templates. Each is parsed together with the layout.
const (
	pageMain    = "main.html"
	pageLoading = "loading.html"
	pageSignIn  = "signin.html"
	pageDoc     = "doc.html"
)

type templates struct {
	pages map[string]*template.Template
}

func parseTemplates() (*templates, error) {
	t := &templates{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageMain, pageLoading, pageSignIn, pageDoc} {
		tpl, err := template.New("layout.html").ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		t.pages[page] = tpl
	}
	return t, nil
}

// layoutData is what every page template receives.
type layoutData struct {
	Title         string
	CSRFFieldName string
	CSRFToken     string
	Page          any
}

// render executes page into a buffer so a template error never leaves a
// half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	const op = "site.render"

	tpl, ok := h.templates.pages[page]
	if !ok {
		h.internalError(w, r, newKind(op, ErrRender))
		return
	}

	var buf bytes.Buffer
	err := tpl.Execute(&buf, layoutData{
		Title:         title,
		CSRFFieldName: csrfFieldName,
		CSRFToken:     csrf.Token(r),
		Page:          data,
	})
	if err != nil {
		h.internalError(w, r, wrap(op, ErrRender, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "internal error",
		logger.String("path", r.URL.Path),
		logger.Error(err),
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
