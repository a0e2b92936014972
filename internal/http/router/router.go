// Package router agrega todas las rutas HTTP del directorio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminctrl "github.com/dropDatabas3/hellodir/internal/http/controllers/admin"
	mw "github.com/dropDatabas3/hellodir/internal/http/middlewares"
)

// Deps contiene las dependencias del router. Se arma en server/wiring.
type Deps struct {
	Tenants *adminctrl.TenantsController
	Clients *adminctrl.ClientsController
	Users   *adminctrl.UsersController

	Admin mw.AdminConfig

	// Ready reporta si el storage responde. Usado por /readyz.
	Ready func(r *http.Request) error

	Registry *prometheus.Registry
}

// New construye el router con el middleware base aplicado a todo y el
// guard de admin sólo sobre /v1/admin.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithRecover())
	r.Use(mw.WithLogging())
	r.Use(mw.WithMetrics())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Endpoints calientes de resolución: sin auth admin, son la
	// superficie de lectura de los otros servicios de la plataforma.
	r.Get("/v1/clients/{client_id}/active-version", deps.Clients.ResolveActiveVersion)
	r.Get("/v1/identities/{provider}/{provider_user_id}", deps.Users.ResolveByProvider)

	r.Route("/v1/admin", func(ar chi.Router) {
		ar.Use(mw.RequireAdmin(deps.Admin))

		ar.Post("/tenants", deps.Tenants.CreateTenant)
		ar.Get("/tenants/{id}", deps.Tenants.GetTenant)
		ar.Get("/tenants/by-slug/{slug}", deps.Tenants.GetTenantBySlug)
		ar.Post("/tenants/{id}/deactivate", deps.Tenants.DeactivateTenant)

		ar.Post("/clients", deps.Clients.RegisterClient)
		ar.Get("/clients/{client_id}", deps.Clients.GetClient)
		ar.Delete("/clients/{client_id}", deps.Clients.DeleteClient)
		ar.Post("/clients/{client_id}/versions", deps.Clients.CreateVersion)
		ar.Get("/clients/{client_id}/versions", deps.Clients.ListVersions)
		ar.Get("/clients/{client_id}/versions/active", deps.Clients.ResolveActiveVersion)
		ar.Post("/clients/{client_id}/versions/{version}/activate", deps.Clients.ActivateVersion)
		ar.Post("/clients/{client_id}/versions/{version}/revoke", deps.Clients.RevokeVersion)

		ar.Post("/users", deps.Users.CreateUser)
		ar.Get("/users/by-email", deps.Users.GetUserByEmail)
		ar.Get("/users/{id}", deps.Users.GetUser)
		ar.Delete("/users/{id}", deps.Users.DeleteUser)
		ar.Post("/users/{id}/identities", deps.Users.LinkIdentity)
		ar.Get("/users/{id}/identities", deps.Users.ListIdentities)
		ar.Delete("/users/{id}/identities/{provider}", deps.Users.UnlinkIdentity)
	})

	return r
}
