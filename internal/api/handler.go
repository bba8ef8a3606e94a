package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/storeops/internal/models"
	"github.com/punchamoorthee/storeops/internal/service"
	"github.com/punchamoorthee/storeops/internal/store"
	"go.uber.org/zap"
)

// SessionHeader carries the token returned by POST /login.
const SessionHeader = "X-Session-Token"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeops_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storeops_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	catalog   *service.CatalogService
	customers *service.CustomerService
	sessions  *service.SessionService
	checkout  *service.CheckoutService
	logger    *zap.Logger
}

func NewHandler(
	catalog *service.CatalogService,
	customers *service.CustomerService,
	sessions *service.SessionService,
	checkout *service.CheckoutService,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:   catalog,
		customers: customers,
		sessions:  sessions,
		checkout:  checkout,
		logger:    logger,
	}
}

// Router builds the full route table, including /metrics and /health.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/login", h.LoginHandler).Methods("POST")
	v1.HandleFunc("/logout", h.LogoutHandler).Methods("POST")

	// stats must be registered ahead of {id}
	v1.HandleFunc("/products/stats", h.ProductStatsHandler).Methods("GET")
	v1.HandleFunc("/products", h.ListProductsHandler).Methods("GET")
	v1.HandleFunc("/products", h.CreateProductHandler).Methods("POST")
	v1.HandleFunc("/products", h.DeleteProductByNameHandler).Methods("DELETE").Queries("name", "{name}")
	v1.HandleFunc("/products/{id}", h.GetProductHandler).Methods("GET")
	v1.HandleFunc("/products/{id}", h.DeleteProductHandler).Methods("DELETE")
	v1.HandleFunc("/products/{id}/availability", h.AvailabilityHandler).Methods("GET")

	v1.HandleFunc("/customers", h.ListCustomersHandler).Methods("GET")
	v1.HandleFunc("/customers", h.CreateCustomerHandler).Methods("POST")
	v1.HandleFunc("/customers/{id}", h.DeleteCustomerHandler).Methods("DELETE")

	v1.HandleFunc("/checkout", h.CheckoutHandler).Methods("POST")
	v1.HandleFunc("/history", h.HistoryHandler).Methods("GET")
	return r
}

// statusFor maps domain and store errors onto HTTP status codes.
func statusFor(err error) int {
	var cerr *service.Error
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case service.KindNotAuthenticated:
			return http.StatusUnauthorized
		case service.KindEmptyCart, service.KindInvalidQuantity:
			return http.StatusBadRequest
		case service.KindProductNotFound:
			return http.StatusNotFound
		case service.KindInsufficientStock:
			return http.StatusUnprocessableEntity
		case service.KindConcurrentStockChange:
			return http.StatusConflict
		case service.KindStorageUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, store.ErrProductNotFound), errors.Is(err, store.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateProduct), errors.Is(err, store.ErrDuplicateCustomer):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidProduct), errors.Is(err, store.ErrInvalidCustomer):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(w http.ResponseWriter, err error, method, endpoint string) {
	code := statusFor(err)
	body := models.ErrorResponse{Error: err.Error()}

	var cerr *service.Error
	if errors.As(err, &cerr) {
		body.Kind = cerr.Kind.String()
		body.ProductID = cerr.ProductID
		if cerr.Kind == service.KindInsufficientStock {
			body.Available = &cerr.Available
			body.Requested = &cerr.Requested
		}
	}
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		// storage details stay in the log
		if cerr == nil {
			body.Error = http.StatusText(code)
		}
	}
	respondJSON(w, code, body, method, endpoint)
}

func respondMessage(w http.ResponseWriter, code int, message, method, endpoint string) {
	respondJSON(w, code, models.ErrorResponse{Error: message}, method, endpoint)
}

func respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	if payload == nil {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
