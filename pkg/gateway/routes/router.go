package routes

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/umtracker/platform/pkg/gateway/middleware"
	"github.com/umtracker/platform/pkg/gateway/respond"
	"github.com/umtracker/platform/pkg/observability/metrics"
)

type RouterConfig struct {
	Tokens    middleware.TokenValidator
	Auth      *AuthHandler
	Circuits  *CircuitsHandler
	Reports   *ReportsHandler
	Ready     func(ctx context.Context) error
	StaticDir string
}

func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, msgNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				respond.Error(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)

	if cfg.Auth != nil {
		cfg.Auth.Register(router.PathPrefix("/auth").Subrouter())
	}

	api := router.PathPrefix("/api/circuits").Subrouter()
	api.Use(middleware.Authenticate(cfg.Tokens))
	if cfg.Reports != nil {
		cfg.Reports.Register(api.PathPrefix("/reports").Subrouter())
	}
	if cfg.Circuits != nil {
		cfg.Circuits.Register(api)
		cfg.Circuits.RegisterLookup(api)
	}

	if cfg.StaticDir != "" {
		mountStatic(router, cfg.StaticDir)
	}
	return router
}

// mountStatic serves the single page app. Unknown non-API paths fall back to
// index.html so client side routes survive a reload.
func mountStatic(router *mux.Router, dir string) {
	files := http.FileServer(http.Dir(dir))
	router.PathPrefix("/assets/").Handler(files).Methods(http.MethodGet)
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			respond.Error(w, http.StatusNotFound, msgNotFound)
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}).Methods(http.MethodGet)
}
