package site

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed content/*.md
var contentFS embed.FS

const (
	pathPrivacyPolicy  = "/privacy-policy"
	pathTermsOfService = "/terms-of-service"
)

// doc is a static page rendered once at startup.
type doc struct {
	Title string
	Body  template.HTML
}

var docSources = []struct {
	path, file, title string
}{
	{pathPrivacyPolicy, "content/privacy-policy.md", "Privacy Policy"},
	{pathTermsOfService, "content/terms-of-service.md", "Terms of Service"},
}

// Raw HTML in the markdown is not passed through (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Typographer),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderDocs() (map[string]doc, error) {
	docs := make(map[string]doc, len(docSources))
	for _, src := range docSources {
		md, err := contentFS.ReadFile(src.file)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := mdRenderer.Convert(md, &buf); err != nil {
			return nil, err
		}
		docs[src.path] = doc{
			Title: src.title,
			Body:  template.HTML(buf.String()), //nolint:gosec // rendered from embedded markdown with raw HTML disabled
		}
	}
	return docs, nil
}
