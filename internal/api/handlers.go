package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/punchamoorthee/storeops/internal/models"
	"github.com/punchamoorthee/storeops/internal/service"
)

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/login"))
	defer timer.ObserveDuration()

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		respondMessage(w, http.StatusBadRequest, "email is required", "POST", "/login")
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email)
	if err != nil {
		h.respondError(w, err, "POST", "/login")
		return
	}
	respondJSON(w, http.StatusCreated, models.LoginResponse{Token: sess.Token, Customer: sess.Customer}, "POST", "/login")
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Header.Get(SessionHeader))
	respondJSON(w, http.StatusNoContent, nil, "POST", "/logout")
}

func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/products"))
	defer timer.ObserveDuration()

	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.respondError(w, err, "GET", "/products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products, "GET", "/products")
}

func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("GET", "/products/{id}"))
	defer timer.ObserveDuration()

	p, err := h.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err, "GET", "/products/{id}")
		return
	}
	respondJSON(w, http.StatusOK, p, "GET", "/products/{id}")
}

func (h *Handler) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/products/{id}/availability"
	id := mux.Vars(r)["id"]

	qty := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "quantity must be an integer", "GET", endpoint)
			return
		}
		qty = n
	}

	ok, err := h.catalog.CheckAvailability(r.Context(), id, qty)
	if err != nil {
		h.respondError(w, err, "GET", endpoint)
		return
	}
	respondJSON(w, http.StatusOK, models.AvailabilityResponse{ProductID: id, Quantity: qty, Available: ok}, "GET", endpoint)
}

func (h *Handler) ProductStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.respondError(w, err, "GET", "/products/stats")
		return
	}
	respondJSON(w, http.StatusOK, stats, "GET", "/products/stats")
}

func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/products")
		return
	}

	p, err := h.catalog.Add(r.Context(), domain.Product{ID: req.ID, Name: req.Name, Price: req.Price, Stock: req.Stock})
	if err != nil {
		h.respondError(w, err, "POST", "/products")
		return
	}
	w.Header().Set("Location", "/api/v1/products/"+p.ID)
	respondJSON(w, http.StatusCreated, p, "POST", "/products")
}

func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondError(w, err, "DELETE", "/products/{id}")
		return
	}
	respondJSON(w, http.StatusNoContent, nil, "DELETE", "/products/{id}")
}

func (h *Handler) DeleteProductByNameHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.RemoveByName(r.Context(), mux.Vars(r)["name"]); err != nil {
		h.respondError(w, err, "DELETE", "/products")
		return
	}
	respondJSON(w, http.StatusNoContent, nil, "DELETE", "/products")
}

func (h *Handler) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		h.respondError(w, err, "GET", "/customers")
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	respondJSON(w, http.StatusOK, customers, "GET", "/customers")
}

func (h *Handler) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/customers")
		return
	}

	c, err := h.customers.Register(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		h.respondError(w, err, "POST", "/customers")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": c.ID}, "POST", "/customers")
}

// DeleteCustomerHandler accepts either a customer id or a name in {id}.
func (h *Handler) DeleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := h.customers.Remove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err, "DELETE", "/customers/{id}")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Customer{"removed": removed}, "DELETE", "/customers/{id}")
}

func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/checkout"))
	defer timer.ObserveDuration()

	// 1. Resolve the session
	sess, err := h.sessions.Resolve(r.Header.Get(SessionHeader))
	if err != nil {
		h.respondError(w, err, "POST", "/checkout")
		return
	}

	// 2. Decode the cart
	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/checkout")
		return
	}

	// 3. Call service
	receipt, err := h.checkout.Checkout(r.Context(), &sess.Customer, domain.Cart(req.Lines))
	if err != nil {
		h.respondError(w, err, "POST", "/checkout")
		return
	}
	respondJSON(w, http.StatusCreated, receipt, "POST", "/checkout")
}

func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Resolve(r.Header.Get(SessionHeader))
	if err != nil {
		h.respondError(w, err, "GET", "/history")
		return
	}

	entries, err := h.customers.History(r.Context(), sess.Customer.ID)
	if err != nil {
		h.respondError(w, &service.Error{Kind: service.KindStorageUnavailable, Err: err}, "GET", "/history")
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	respondJSON(w, http.StatusOK, entries, "GET", "/history")
}
