package api

import (
	"courier-dispatch-service/internal/api/handlers"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/ports"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(repo ports.ShopRepository, dispatcher handlers.ShopDispatcher) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.OrderHandler{Repo: repo}
	deliveryHandler := &handlers.DeliveryHandler{
		Repo:       repo,
		Dispatcher: dispatcher,
	}

	healthHandler := &handlers.HealthHandler{}
	if p, ok := repo.(handlers.Pinger); ok {
		healthHandler.Store = p
	}

	metrics.RegisterDefault()

	mux.HandleFunc("/health", healthHandler.Check)
	mux.HandleFunc("/shops/{shopID}/orders", orderHandler.List)
	mux.HandleFunc("/deliveries", deliveryHandler.Create)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
