package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/rbac"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса бронирования.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/health", h.Health)

	fileServer := http.FileServer(http.Dir(h.uploadsDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		r.Get("/ws", h.ServeWS)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateProfile)
			r.Get("/users/{id}/pets", h.GetPets)
			r.Get("/users/{id}/appointments", h.GetAppointments)
			r.Get("/users/{id}/photos", h.GetPhotos)

			r.Post("/pets", h.CreatePet)
			r.Put("/pets/{id}", h.UpdatePet)
			r.Delete("/pets/{id}", h.DeletePet)
			r.Post("/pets/{id}/photos", h.UploadPhoto)

			r.Get("/services", h.GetServices)

			r.Post("/appointments", h.CreateAppointment)
			r.Put("/appointments/{id}/status", h.UpdateAppointmentStatus)

			r.Post("/payments/intent", h.CreatePaymentIntent)
			r.Post("/payments/confirm", h.ConfirmPayment)
			r.Get("/payments/status/{provider_id}", h.GetPaymentStatus)

			r.Delete("/photos/{id}", h.DeletePhoto)
			r.Post("/photos/{id}/like", h.ToggleLike)
			r.Get("/photos/{id}/comments", h.GetComments)
			r.Post("/photos/{id}/comments", h.AddComment)

			r.Route("/admin", func(r chi.Router) {
				gate := func(permission string) func(http.Handler) http.Handler {
					return custommiddleware.RequirePermission(h.service, permission)
				}

				r.With(gate(rbac.PermAppointmentManagement)).Get("/appointments", h.AdminGetAppointments)
				r.With(gate(rbac.PermAppointmentManagement)).Put("/appointments/{id}/status", h.AdminUpdateAppointmentStatus)

				r.With(gate(rbac.PermAnalytics)).Get("/stats", h.AdminGetStats)

				r.With(gate(rbac.PermCustomerManagement)).Get("/customers", h.AdminGetCustomers)

				r.With(gate(rbac.PermUserManagement)).Get("/users", h.AdminGetStaff)
				r.With(gate(rbac.PermUserManagement)).Post("/users", h.AdminCreateStaff)
				r.With(gate(rbac.PermUserManagement)).Put("/users/{id}", h.AdminUpdateStaff)
				r.With(gate(rbac.PermUserManagement)).Delete("/users/{id}", h.AdminDeactivateUser)

				r.With(gate(rbac.PermRoleManagement)).Get("/roles", h.AdminGetRoles)
				r.With(gate(rbac.PermRoleManagement)).Post("/roles", h.AdminCreateRole)
				r.With(gate(rbac.PermRoleManagement)).Put("/roles/{id}/permissions", h.AdminUpdateRolePermissions)
				r.With(gate(rbac.PermRoleManagement)).Delete("/roles/{id}", h.AdminDeleteRole)
				r.With(gate(rbac.PermRoleManagement)).Get("/permissions", h.AdminGetPermissions)

				r.With(gate(rbac.PermBusinessSettings)).Get("/settings", h.AdminGetSettings)
				r.With(gate(rbac.PermBusinessSettings)).Get("/settings/categories", h.AdminGetSettingCategories)
				r.With(gate(rbac.PermBusinessSettings)).Put("/settings/{category}/{key}", h.AdminUpdateSetting)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
