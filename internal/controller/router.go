package controller

import (
	"time"

	"github.com/cassiomorais/qrpay/internal/domain/cart"
	"github.com/cassiomorais/qrpay/internal/infrastructure/config"
	"github.com/cassiomorais/qrpay/internal/infrastructure/observability"
	"github.com/cassiomorais/qrpay/internal/ledger"
	customMW "github.com/cassiomorais/qrpay/internal/middleware"
	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	RedisClient *redis.Client
	Coordinator QRCoordinator
	Saga        CheckoutRunner
	Payments    PaymentReader
	Orders      OrderReader
	Products    ProductReader
	Ledger      *ledger.Ledger
	Cart        *cart.Cart
	Sessions    *session.Store
	Metrics     *observability.Metrics
	CORSConfig  config.CORSConfig
	Logger      zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.RedisClient)
	qrH := NewQRController(deps.Coordinator)
	checkoutH := NewCheckoutController(deps.Saga)
	cartH := NewCartController(deps.Cart, deps.Products, deps.Ledger, deps.Logger)
	productH := NewProductController(deps.Products, deps.Ledger, deps.Logger)
	orderH := NewOrderController(deps.Orders, deps.Ledger)
	paymentH := NewPaymentController(deps.Payments)
	sessionH := NewSessionController(deps.Sessions)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// QR lifecycle
		r.Post("/qr/initiate", qrH.Initiate)
		r.Get("/qr", qrH.State)
		r.Post("/qr/retry", qrH.Retry)
		r.Delete("/qr", qrH.Clear)

		// Checkout
		r.Post("/checkout", checkoutH.Checkout)

		// Cart
		r.Get("/cart", cartH.Get)
		r.Post("/cart/items", cartH.AddItem)
		r.Put("/cart/items/{productId}", cartH.UpdateItem)
		r.Delete("/cart/items/{productId}", cartH.RemoveItem)
		r.Delete("/cart", cartH.Clear)

		// Products
		r.Get("/products", productH.List)
		r.Get("/products/{id}", productH.Get)
		r.Patch("/products/{id}/stock", productH.UpdateStock)

		// Orders, served as two views that are never merged
		r.Get("/orders/local", orderH.ListLocal)
		r.Get("/orders/local/{id}", orderH.GetLocal)
		r.Patch("/orders/local/{id}/status", orderH.UpdateLocalStatus)
		r.Get("/orders/remote", orderH.ListRemote)
		r.Get("/orders/remote/{id}", orderH.GetRemote)
		r.Patch("/orders/remote/{id}/status", orderH.UpdateRemoteStatus)

		// Payment passthrough, including manual reconciliation actions
		r.Get("/payments", paymentH.List)
		r.Get("/payments/{id}", paymentH.Get)
		r.Post("/payments/{id}/confirm", paymentH.Confirm)
		r.Post("/payments/{id}/cancel", paymentH.Cancel)
		r.Post("/payments/{id}/refund", paymentH.Refund)

		// Session
		r.Get("/session", sessionH.Get)
		r.Put("/session", sessionH.Set)
		r.Delete("/session", sessionH.Clear)
	})

	return r
}
