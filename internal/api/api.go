// Package api assembles the API module with all domain systems and route
// registration. Every route behind the module requires an authenticated
// principal; authorization happens per operation inside the domain.
package api

import (
	"net/http"

	"github.com/registrum/registrum/internal/config"
	"github.com/registrum/registrum/internal/infrastructure"
	"github.com/registrum/registrum/pkg/middleware"
	"github.com/registrum/registrum/pkg/module"
	"github.com/registrum/registrum/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(runtime.Auth.Require())
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	scans := newScanHandler(domain.Documents, runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		scans.routes(),
	)
}
