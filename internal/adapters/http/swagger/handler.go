// Package swagger serves the OpenAPI description of the service.
package swagger

import (
	"context"
	"net/http"

	"github.com/okian/checkboard/internal/adapters/http/middleware"
)

// Register attaches the OpenAPI spec route to mux.
//
//	GET /openapi.yaml -> embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /openapi.yaml", middleware.Metrics(http.HandlerFunc(serveSpec), "openapi"))
}

func serveSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPI)
}
