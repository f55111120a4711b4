package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/csrf"

	service "github.com/okian/checkboard/internal/app"
	"github.com/okian/checkboard/internal/domain/form"
	"github.com/okian/checkboard/internal/domain/session"
	"github.com/okian/checkboard/internal/domain/types"
	"github.com/okian/checkboard/pkg/logger"
)

const (
	maxFormBytes = 64 << 10
	signInPath   = "/sign-in"
)

// mainPage is the data behind main.html.
type mainPage struct {
	ViewID      string
	DisplayName string
	Form        form.Form
	Entries     []types.LeaderboardEntry
}

func newMainPage(v service.View) mainPage {
	return mainPage{
		ViewID:      v.ID,
		DisplayName: v.DisplayName,
		Form:        v.Form,
		Entries:     v.Board.Entries,
	}
}

// handleRoot runs the session gate for a fresh page load.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	v := h.pages.Open(r.Context(), h.accessToken(r))
	h.renderView(w, r, v)
}

func (h *Handler) renderView(w http.ResponseWriter, r *http.Request, v service.View) {
	switch v.Gate.Phase {
	case session.SignedIn:
		h.render(w, r, http.StatusOK, pageMain, "Checkboard", newMainPage(v))
	case session.Loading:
		// Open settles the gate before returning; kept for completeness of Phase.
		h.render(w, r, http.StatusOK, pageLoading, "Loading...", nil)
	default:
		http.Redirect(w, r, signInPath, http.StatusFound)
	}
}

// signInPage is the data behind signin.html.
type signInPage struct {
	Hint string
}

func (h *Handler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageSignIn, "Sign In", signInPage{Hint: h.signInHint})
}

// handleSignIn is the sign-in stub: it navigates on without contacting the
// backend or checking any credentials.
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.postSignInPath, http.StatusSeeOther)
}

func (h *Handler) handleDoc(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := h.docs[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.render(w, r, http.StatusOK, pageDoc, d.Title, d)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, h.pages.Submit)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, h.pages.Refresh)
}

type action func(ctx context.Context, viewID string, fields form.Edited) (service.View, error)

// handleAction applies a main view action to the posted view. An unknown or
// evicted view is treated as a page reload.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, act action) {
	const op = "site.action"

	viewID, fields, err := parseMainForm(w, r)
	if err != nil {
		h.logger.Debug(r.Context(), "rejecting malformed form", logger.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	v, err := act(r.Context(), viewID, fields)
	switch {
	case errors.Is(err, service.ErrViewNotFound):
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case err != nil:
		h.internalError(w, r, wrap(op, ErrRender, err))
		return
	}
	h.render(w, r, http.StatusOK, pageMain, "Checkboard", newMainPage(v))
}

// parseMainForm reads the view id and the form fields. Checkboxes are
// checked when present with any value.
func parseMainForm(w http.ResponseWriter, r *http.Request) (string, form.Edited, error) {
	const op = "site.parse_form"

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return "", form.Edited{}, wrap(op, ErrBadForm, err)
	}
	fields := form.Edited{
		Name: r.PostForm.Get("name"),
		Red:  r.PostForm.Has("red"),
		Blue: r.PostForm.Has("blue"),
	}
	return r.PostForm.Get("view"), fields, nil
}

func (h *Handler) accessToken(r *http.Request) string {
	c, err := r.Cookie(h.sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn(r.Context(), "csrf check failed",
		logger.String("path", r.URL.Path),
		logger.Error(csrf.FailureReason(r)),
	)
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
