package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"ms-reservations/internal/booking"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *booking.Service
	Logger  *logger.Logger
}

func NewHandler(service *booking.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// CreateCheckoutSession handles POST /api/create-checkout-session.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.Service.CreateCheckoutSession(req)
	if err != nil {
		var orphaned *booking.OrphanedSessionError
		switch {
		case errors.Is(err, booking.ErrValidation):
			utils.WriteError(w, http.StatusBadRequest, validationMessage(err), nil)
		case errors.As(err, &orphaned):
			h.Logger.Error("API", fmt.Sprintf("CreateCheckoutSession: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Failed to store booking", err)
		default:
			h.Logger.Error("API", fmt.Sprintf("CreateCheckoutSession: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Error creating checkout session", err)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// StripeWebhook handles POST /api/webhook.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid webhook payload", err)
		return
	}

	err = h.Service.HandleStripeWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %v", err))

		var webhookErr *booking.WebhookError
		if errors.As(err, &webhookErr) {
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// GetBookingBySession handles GET /api/bookings/{id}, where id is the
// Stripe session the booking was opened with.
func (h *Handler) GetBookingBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	b, err := h.Service.GetBookingBySession(sessionID)
	if err != nil {
		h.writeServiceError(w, err, "Error fetching booking")
		return
	}
	utils.WriteJSON(w, http.StatusOK, b)
}

// ListUserBookings handles GET /api/bookings/user?email=...
func (h *Handler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	bookings, err := h.Service.ListBookingsByEmail(email)
	if err != nil {
		h.writeServiceError(w, err, "Error fetching bookings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, bookings)
}

// ListRestaurantBookings handles GET /api/bookings/restaurant-bookings?restaurantId=...
func (h *Handler) ListRestaurantBookings(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurantId")

	bookings, err := h.Service.ListBookingsByRestaurant(restaurantID)
	if err != nil {
		h.writeServiceError(w, err, "Error fetching bookings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, bookings)
}

// CancelBooking handles the cancellation route.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: id=%s", bookingID))

	if _, err := h.Service.CancelBooking(bookingID); err != nil {
		h.writeServiceError(w, err, "Error cancelling booking")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Booking cancelled successfully")
}

// ConfirmationQR handles GET /api/bookings/{id}/qr and streams a PNG.
func (h *Handler) ConfirmationQR(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	png, err := h.Service.ConfirmationQR(bookingID)
	if err != nil {
		h.writeServiceError(w, err, "Error generating confirmation QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmationQR: failed to write image: %v", err))
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		utils.WriteError(w, http.StatusBadRequest, validationMessage(err), nil)
	case errors.Is(err, booking.ErrNotFound):
		utils.WriteMessage(w, http.StatusNotFound, "Booking not found")
	default:
		h.Logger.Error("API", fmt.Sprintf("booking: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, fallback, err)
	}
}

// validationMessage strips the sentinel prefix so the client sees just the
// human-readable part, e.g. "Email is required".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := booking.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
