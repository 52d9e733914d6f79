package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/roster/internal/api/handler"
	"github.com/daap14/roster/internal/api/middleware"
	"github.com/daap14/roster/internal/auth"
	"github.com/daap14/roster/internal/web"
)

// Store is everything the router needs from the record store.
type Store interface {
	handler.RecordStore
	handler.StoreStatus
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Store          Store
	StorageBackend string
	Version        string
	PageSize       int
	Auth           *auth.Service // nil or disabled leaves every mutation open
	OpenAPISpec    []byte
	UI             *web.Handler // nil disables the HTML view
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.Store, deps.StorageBackend, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	recordHandler := handler.NewRecordHandler(deps.Store, deps.PageSize)
	r.Route("/api/records", func(r chi.Router) {
		r.Get("/", recordHandler.List)
		r.Get("/{id}", recordHandler.GetByID)

		r.Group(func(r chi.Router) {
			if deps.Auth != nil && deps.Auth.Enabled() {
				r.Use(middleware.Auth(deps.Auth))
			}
			r.Post("/", recordHandler.Create)
			r.Put("/{id}", recordHandler.Replace)
			r.Patch("/{id}", recordHandler.Patch)
			r.Delete("/{id}", recordHandler.Delete)
		})
	})

	if deps.UI != nil {
		r.Get("/", deps.UI.Index)

		r.Group(func(r chi.Router) {
			if deps.Auth != nil && deps.Auth.Enabled() {
				r.Use(middleware.BrowserAuth(deps.Auth))
			}
			r.Post("/records", deps.UI.Create)
			r.Post("/records/{id}", deps.UI.Update)
			r.Post("/records/{id}/delete", deps.UI.Delete)
		})
	}

	return r
}
