package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/variants", app.postVariantHandler)
	mux.HandleFunc("/admin/supplier-stock", app.postSupplierStockHandler)
	mux.HandleFunc("/admin/api/", app.graphqlHandler)
	mux.HandleFunc("/variants/", app.getVariantHandler)
	mux.HandleFunc("/login", app.loginHandler)
	mux.HandleFunc("/stockrecents/export", app.exportHandler)
	mux.HandleFunc("/healthz", app.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(app.Metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/openapi.yaml", app.openapiHandler)
	return WithRequestID(WithLogging(app.Metrics, mux))
}
