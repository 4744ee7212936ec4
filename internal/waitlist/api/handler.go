package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"
	"ms-reservations/internal/waitlist"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *waitlist.Service
	Logger  *logger.Logger
}

func NewHandler(service *waitlist.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinWaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.Service.Join(req)
	if err != nil {
		if errors.Is(err, waitlist.ErrValidation) {
			utils.WriteMessage(w, http.StatusBadRequest, "Email and restaurantId are required")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Join waitlist: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Error adding to waitlist", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Successfully added to the waitlist",
		"data":    entry,
	})
}

func (h *Handler) ListByRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")

	entries, err := h.Service.ListByRestaurant(restaurantID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("List waitlist: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Error fetching waitlist", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Remove(id); err != nil {
		if errors.Is(err, waitlist.ErrValidation) {
			utils.WriteMessage(w, http.StatusBadRequest, "Entry ID is required")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Remove from waitlist: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Error removing from waitlist", err)
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Successfully removed from the waitlist")
}
