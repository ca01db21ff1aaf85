package order

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

// Handler exposes the storefront order endpoints, the gateway callback and the
// back-office order routes.
type Handler struct {
	service   Service
	clientURL string
}

func NewHandler(service Service, clientURL string) *Handler {
	return &Handler{service: service, clientURL: clientURL}
}

func (h *Handler) RegisterRoutes(r *chi.Mux, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/checkout", h.checkout)
		r.Get("/track", h.trackOrder)
		r.Post("/cancel", h.cancelOrder)
		r.Get("/{id}", h.getOrder)
	})

	// The payment provider posts the buyer's browser here after the hosted form.
	r.Post("/api/v1/payment/callback", h.paymentCallback)
	r.Get("/api/v1/payment/callback", h.paymentCallback)

	r.Route("/api/v1/admin/orders", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.listOrders)
		r.Patch("/{id}/status", h.updateStatus)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, CheckoutResult{Status: "failure", ErrorMessage: "invalid request body"})
		return
	}
	result, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respond(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "token is required"})
		return
	}
	view, err := h.service.TrackOrder(r.Context(), token)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"status": "success", "data": view})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("email"))
	if err != nil {
		respondFailure(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "invalid request body"})
		return
	}
	if req.Token == "" {
		respond(w, http.StatusBadRequest, map[string]string{"status": "failure", "errorMessage": "token is required"})
		return
	}
	o, err := h.service.CancelOrder(r.Context(), req.Token, req.Reason)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"status": "success", "data": o})
}

// paymentCallback receives the browser redirect from the hosted form and
// forwards the buyer to the storefront result pages. Internal details never
// reach the redirect URL.
func (h *Handler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if err := r.ParseForm(); err == nil {
			token = r.PostFormValue("token")
		}
	}
	if token == "" {
		h.redirectFailure(w, r, "payment token is missing")
		return
	}

	result, err := h.service.CompletePayment(r.Context(), token)
	if err != nil {
		log.Printf("payment callback: token %s: %v", token, err)
		if errors.Is(err, apperr.ErrReconciliation) {
			h.redirectFailure(w, r, "payment could not be matched to an order")
			return
		}
		h.redirectFailure(w, r, "payment could not be verified")
		return
	}
	if result.Status != "success" {
		h.redirectFailure(w, r, result.ErrorMessage)
		return
	}

	q := url.Values{}
	q.Set("orderNumber", result.OrderNumber)
	q.Set("trackingToken", result.TrackingToken)
	http.Redirect(w, r, h.clientURL+"/payment/success?"+q.Encode(), http.StatusFound)
}

func (h *Handler) redirectFailure(w http.ResponseWriter, r *http.Request, message string) {
	q := url.Values{}
	q.Set("errorMessage", message)
	http.Redirect(w, r, h.clientURL+"/payment/failure?"+q.Encode(), http.StatusFound)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondFailure(w, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondFailure(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		// Gateway and reconciliation details stay in the server log.
		log.Printf("order handler: %v", err)
		msg = "internal error"
	}
	respond(w, status, map[string]string{"status": "failure", "errorMessage": msg})
}
