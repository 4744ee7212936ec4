package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/restaurant"
	"ms-reservations/internal/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *restaurant.Service
	Logger  *logger.Logger
}

func NewHandler(service *restaurant.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) statusFor(err error) int {
	switch {
	case errors.Is(err, restaurant.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, restaurant.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, restaurant.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ListRestaurants handles GET /api/restaurants with optional location,
// available_dates and time filters.
func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	filters := models.RestaurantFilters{
		Location: r.URL.Query().Get("location"),
		Date:     r.URL.Query().Get("available_dates"),
		Time:     r.URL.Query().Get("time"),
	}
	h.Logger.Info("API", fmt.Sprintf("ListRestaurants: location=%q date=%q time=%q", filters.Location, filters.Date, filters.Time))

	result, err := h.Service.List(filters)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRestaurants: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error fetching filtered restaurants", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("GetRestaurant: id=%s", id))

	view, err := h.Service.Get(id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetRestaurant: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error fetching restaurant", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Service.Create(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateRestaurant: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error creating restaurant", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) AddAvailability(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "id")

	var req models.AddAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AddAvailability: restaurant=%s dates=%d", restaurantID, len(req.AvailableDates)))

	dates, slots, err := h.Service.AddAvailability(restaurantID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddAvailability: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error adding availability", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Availability added successfully",
		"dates":      dates,
		"time_slots": slots,
	})
}

func (h *Handler) GetRestaurantByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	result, err := h.Service.GetByUser(userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetRestaurantByUser: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error fetching restaurant", err)
		return
	}
	if result == nil {
		// The storefront expects an empty object, not a 404.
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// CreateAvailableDate handles POST /api/reservations/available_dates.
func (h *Handler) CreateAvailableDate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAvailableDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateAvailableDate: restaurant=%s date=%s slots=%d", req.RestaurantID, req.Date, len(req.TimeSlots)))

	date, slots, err := h.Service.CreateAvailableDate(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAvailableDate: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error adding available date", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":        "Available date and time slots added successfully!",
		"available_date": date,
		"time_slots":     slots,
	})
}

// ListAvailableDates handles GET /api/reservations/{restaurantId}/available_dates.
func (h *Handler) ListAvailableDates(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")

	result, err := h.Service.ListAvailability(restaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAvailableDates: %v", err))
		utils.WriteError(w, h.statusFor(err), "Error fetching available dates", err)
		return
	}
	if len(result) == 0 {
		utils.WriteMessage(w, http.StatusNotFound, "No available dates found for this restaurant")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
