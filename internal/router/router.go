package router

import (
	"net/http"

	"modamarket/internal/auth"
	"modamarket/internal/config"
	"modamarket/internal/handler"
	"modamarket/internal/middleware"
	"modamarket/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Shipping *handler.ShippingHandler
	Order    *handler.OrderHandler
	Upload   *handler.UploadHandler
}

// Options configures the router's outer surface.
type Options struct {
	AllowedOrigins []string
	// UploadsDir is served under /uploads when images are stored locally.
	UploadsDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, tokens auth.TokenService, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> Authenticate
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.Authenticate(tokens, logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.UploadsDir != "" {
		r.Handle(config.LocalUploadsPath+"/*", http.StripPrefix(config.LocalUploadsPath+"/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	vendorOrAdmin := middleware.RequireRole(model.RoleVendor, model.RoleAdmin)
	vendorOnly := middleware.RequireRole(model.RoleVendor)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Get("/profile", h.User.Profile)
			r.Put("/profile", h.User.UpdateProfile)
			r.Post("/addresses", h.User.AddAddress)
			r.Put("/addresses/{id}", h.User.UpdateAddress)
			r.Delete("/addresses/{id}", h.User.DeleteAddress)
			r.Post("/phones", h.User.AddPhone)
			r.Put("/phones/{id}", h.User.UpdatePhone)
			r.Delete("/phones/{id}", h.User.DeletePhone)
			r.With(vendorOnly).Put("/payment-methods", h.User.UpdatePaymentMethods)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/{id}", h.Product.Get)
			r.With(vendorOrAdmin).Post("/", h.Product.Create)
			r.With(vendorOrAdmin).Put("/{id}", h.Product.Update)
			r.With(vendorOrAdmin).Delete("/{id}", h.Product.Delete)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Post("/", h.Cart.AddItem)
			r.Delete("/", h.Cart.Clear)
			r.Put("/{itemId}", h.Cart.UpdateItem)
			r.Delete("/{itemId}", h.Cart.RemoveItem)
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/vendor/{vendorId}", h.Shipping.PublicZones)
			r.With(middleware.RequireSession).Post("/calculate", h.Shipping.Calculate)

			r.Group(func(r chi.Router) {
				r.Use(vendorOrAdmin)
				r.Get("/", h.Shipping.List)
				r.Post("/", h.Shipping.Create)
				r.Get("/{id}", h.Shipping.Get)
				r.Put("/{id}", h.Shipping.Update)
				r.Delete("/{id}", h.Shipping.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/", h.Order.Checkout)
			r.Get("/", h.Order.List)
			r.Get("/{id}", h.Order.Get)
			r.Post("/{id}/upload-proof", h.Order.UploadProof)
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(vendorOnly)
			r.Get("/products", h.Product.ListOwn)
			r.Get("/orders", h.Order.List)
			r.Get("/orders/summary", h.Order.Summary)
			r.Get("/orders/{id}", h.Order.Get)
			r.Post("/orders/{id}/confirm-payment", h.Order.ConfirmPayment)
			r.Patch("/orders/{id}/update-status", h.Order.UpdateStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/users", h.User.List)
			r.Post("/users", h.User.Create)
			r.Get("/users/{id}", h.User.Get)
			r.Put("/users/{id}", h.User.Update)
			r.Delete("/users/{id}", h.User.Delete)

			r.Get("/orders", h.Order.List)
			r.Get("/orders/{id}", h.Order.Get)
			r.Patch("/orders/{id}/status", h.Order.AdminUpdateStatus)
			r.Post("/orders/{id}/confirm", h.Order.AdminConfirm)
			r.Post("/orders/{id}/cancel", h.Order.Cancel)
		})

		r.With(vendorOrAdmin).Post("/uploads/images", h.Upload.Image)
	})

	return r
}
