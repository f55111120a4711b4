package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/checkboard/internal/adapters/http/api"
	. "github.com/smartystreets/goconvey/convey"
)

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func TestAPIServer(t *testing.T) {
	Convey("Given a new API server", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		server := api.NewServer(&mockStatsProvider{stats: map[string]interface{}{"views": 3, "viewCapacity": 10}})

		Convey("When registering routes", func() {
			server.Register(ctx, mux)

			Convey("Then the health endpoint serves Prometheus metrics", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "checkboard_web_")
			})

			Convey("And the stats endpoint serves the provider's stats as JSON", func() {
				req := httptest.NewRequest(http.MethodGet, "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["views"], ShouldEqual, 3)
				So(got["viewCapacity"], ShouldEqual, 10)
			})

			Convey("And the stats endpoint refuses other methods", func() {
				req := httptest.NewRequest(http.MethodPost, "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				var got map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["code"], ShouldEqual, "method_not_allowed")
			})

			Convey("And unknown paths are not found", func() {
				req := httptest.NewRequest(http.MethodGet, "/nope", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When registering on a nil mux", func() {
			Convey("Then it should panic", func() {
				So(func() { server.Register(ctx, nil) }, ShouldPanic)
			})
		})
	})
}
