package restaurant

import (
	"database/sql"
	"errors"
	"fmt"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
)

var (
	ErrValidation = errors.New("invalid request payload")
	ErrNotFound   = errors.New("restaurant not found")
	ErrForbidden  = errors.New("forbidden: not your restaurant")
)

type DBLayer interface {
	CreateRestaurant(r *models.Restaurant) error
	GetRestaurantByID(id string) (*models.Restaurant, error)
	ListRestaurants(location string) ([]models.Restaurant, error)
	GetRestaurantByUser(userID string) (*models.Restaurant, error)
	InsertAvailableDates(dates []models.AvailableDate) ([]models.AvailableDate, error)
	InsertTimeSlots(slots []models.TimeSlot) ([]models.TimeSlot, error)
	DeleteAvailableDates(ids []string) error
	ListAvailableDates(restaurantID string) ([]models.AvailableDate, error)
	ListAvailableDatesForRestaurants(restaurantIDs []string, date string) ([]models.AvailableDate, error)
	ListTimeSlotsForDates(dateIDs []string, timeOfDay string) ([]models.TimeSlot, error)
}

// ViewCache holds composed per-restaurant availability views. Entries are
// best-effort; a miss always falls through to the store.
type ViewCache interface {
	GetView(restaurantID string) (*models.RestaurantWithAvailability, bool)
	SetView(restaurantID string, view *models.RestaurantWithAvailability)
	Invalidate(restaurantID string)
}

type Service struct {
	DB     DBLayer
	Cache  ViewCache
	logger *logger.Logger
}

func NewService(db DBLayer, cache ViewCache, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, logger: log}
}

// List returns restaurants with their availability trees. Without a date or
// time filter every restaurant appears, availability possibly empty; with one,
// only restaurants holding at least one matching row appear and the nested
// arrays carry only the matching rows.
func (s *Service) List(f models.RestaurantFilters) ([]models.RestaurantWithAvailability, error) {
	restaurants, err := s.DB.ListRestaurants(f.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	ids := make([]string, len(restaurants))
	for i, r := range restaurants {
		ids[i] = r.ID
	}

	dates, err := s.DB.ListAvailableDatesForRestaurants(ids, f.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load available dates: %w", err)
	}

	dateIDs := make([]string, len(dates))
	for i, d := range dates {
		dateIDs[i] = d.ID
	}

	slots, err := s.DB.ListTimeSlotsForDates(dateIDs, f.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to load time slots: %w", err)
	}

	slotsByDate := make(map[string][]models.TimeSlot)
	for _, slot := range slots {
		slotsByDate[slot.AvailableDateID] = append(slotsByDate[slot.AvailableDateID], slot)
	}

	datesByRestaurant := make(map[string][]models.AvailableDateWithSlots)
	for _, d := range dates {
		nestedSlots := slotsByDate[d.ID]
		// A time filter demotes dates with no matching slot entirely.
		if f.Time != "" && len(nestedSlots) == 0 {
			continue
		}
		if nestedSlots == nil {
			nestedSlots = []models.TimeSlot{}
		}
		datesByRestaurant[d.RestaurantID] = append(datesByRestaurant[d.RestaurantID], models.AvailableDateWithSlots{
			ID:        d.ID,
			Date:      d.Date,
			TimeSlots: nestedSlots,
		})
	}

	matchOnly := f.Date != "" || f.Time != ""

	result := make([]models.RestaurantWithAvailability, 0, len(restaurants))
	for _, r := range restaurants {
		nested := datesByRestaurant[r.ID]
		if matchOnly && len(nested) == 0 {
			continue
		}
		if nested == nil {
			nested = []models.AvailableDateWithSlots{}
		}
		result = append(result, models.RestaurantWithAvailability{
			Restaurant:     r,
			AvailableDates: nested,
		})
	}
	return result, nil
}

// Get returns one restaurant with its full availability tree.
func (s *Service) Get(id string) (*models.RestaurantWithAvailability, error) {
	if s.Cache != nil {
		if view, ok := s.Cache.GetView(id); ok {
			return view, nil
		}
	}

	r, err := s.DB.GetRestaurantByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch restaurant %s: %w", id, err)
	}

	nested, err := s.availabilityTree(id)
	if err != nil {
		return nil, err
	}

	view := &models.RestaurantWithAvailability{Restaurant: *r, AvailableDates: nested}
	if s.Cache != nil {
		s.Cache.SetView(id, view)
	}
	return view, nil
}

func (s *Service) Create(req models.CreateRestaurantRequest) (*models.Restaurant, error) {
	if req.UserID == "" || req.Name == "" || req.Location == "" {
		return nil, fmt.Errorf("%w: user ID, name, and location are required", ErrValidation)
	}

	r := &models.Restaurant{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Location:    req.Location,
		Rating:      req.Rating,
		Michelin:    req.Michelin,
		PriceRange:  req.PriceRange,
		Images:      req.Images,
		Features:    req.Features,
	}
	if err := s.DB.CreateRestaurant(r); err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	s.logger.Info("RESTAURANT", fmt.Sprintf("Created restaurant %s (%s)", r.ID, r.Name))
	return r, nil
}

// GetByUser returns the first restaurant owned by the user, or nil when the
// user owns none.
func (s *Service) GetByUser(userID string) (*models.Restaurant, error) {
	r, err := s.DB.GetRestaurantByUser(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch restaurant for user %s: %w", userID, err)
	}
	return r, nil
}

// AddAvailability publishes a batch of dates with their slots under one
// restaurant. The requester must be the owner; the check runs before any
// insert. Dates are inserted first to obtain generated ids, then each input
// slot array is attached to its date by position. If the slot insert fails
// the freshly inserted dates are removed again so no orphaned dates remain.
func (s *Service) AddAvailability(restaurantID string, req models.AddAvailabilityRequest) ([]models.AvailableDate, []models.TimeSlot, error) {
	if req.UserID == "" || len(req.AvailableDates) == 0 {
		return nil, nil, fmt.Errorf("%w: user ID and valid available_dates are required", ErrValidation)
	}

	r, err := s.DB.GetRestaurantByID(restaurantID)
	if err != nil {
		return nil, nil, ErrForbidden
	}
	if r.UserID != req.UserID {
		return nil, nil, ErrForbidden
	}

	dateRows := make([]models.AvailableDate, len(req.AvailableDates))
	for i, entry := range req.AvailableDates {
		dateRows[i] = models.AvailableDate{RestaurantID: restaurantID, Date: entry.Date}
	}

	inserted, err := s.DB.InsertAvailableDates(dateRows)
	if err != nil {
		return nil, nil, fmt.Errorf("error inserting available dates: %w", err)
	}

	var slotRows []models.TimeSlot
	for i, d := range inserted {
		for _, slot := range req.AvailableDates[i].TimeSlots {
			slotRows = append(slotRows, models.TimeSlot{
				AvailableDateID: d.ID,
				Time:            slot.Time,
				Price:           slot.Price,
			})
		}
	}

	slots, err := s.DB.InsertTimeSlots(slotRows)
	if err != nil {
		s.compensateDates(inserted)
		return nil, nil, fmt.Errorf("error inserting time slots: %w", err)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(restaurantID)
	}
	s.logger.Info("AVAILABILITY", fmt.Sprintf("Published %d dates / %d slots for restaurant %s", len(inserted), len(slots), restaurantID))
	return inserted, slots, nil
}

// CreateAvailableDate publishes a single date with its slots.
func (s *Service) CreateAvailableDate(req models.CreateAvailableDateRequest) (*models.AvailableDate, []models.TimeSlot, error) {
	if req.RestaurantID == "" || req.Date == "" || len(req.TimeSlots) == 0 {
		return nil, nil, fmt.Errorf("%w: missing required fields or invalid payload", ErrValidation)
	}

	inserted, err := s.DB.InsertAvailableDates([]models.AvailableDate{
		{RestaurantID: req.RestaurantID, Date: req.Date},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error inserting available date: %w", err)
	}
	date := inserted[0]

	slotRows := make([]models.TimeSlot, len(req.TimeSlots))
	for i, slot := range req.TimeSlots {
		slotRows[i] = models.TimeSlot{
			AvailableDateID: date.ID,
			Time:            slot.Time,
			Price:           slot.Price,
		}
	}

	slots, err := s.DB.InsertTimeSlots(slotRows)
	if err != nil {
		s.compensateDates(inserted)
		return nil, nil, fmt.Errorf("error inserting time slots: %w", err)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(req.RestaurantID)
	}
	return &date, slots, nil
}

// compensateDates removes date rows whose slot insert failed. Best effort,
// a cleanup failure is only logged.
func (s *Service) compensateDates(dates []models.AvailableDate) {
	ids := make([]string, len(dates))
	for i, d := range dates {
		ids[i] = d.ID
	}
	if err := s.DB.DeleteAvailableDates(ids); err != nil {
		s.logger.Warn("AVAILABILITY", fmt.Sprintf("Failed to clean up %d orphaned dates: %v", len(ids), err))
	}
}

// ListAvailability returns the dates with nested slots for one restaurant.
func (s *Service) ListAvailability(restaurantID string) ([]models.AvailableDateWithSlots, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant ID is required", ErrValidation)
	}
	return s.availabilityTree(restaurantID)
}

func (s *Service) availabilityTree(restaurantID string) ([]models.AvailableDateWithSlots, error) {
	dates, err := s.DB.ListAvailableDates(restaurantID)
	if err != nil {
		return nil, fmt.Errorf("error fetching available dates: %w", err)
	}

	dateIDs := make([]string, len(dates))
	for i, d := range dates {
		dateIDs[i] = d.ID
	}

	slots, err := s.DB.ListTimeSlotsForDates(dateIDs, "")
	if err != nil {
		return nil, fmt.Errorf("error fetching time slots: %w", err)
	}

	slotsByDate := make(map[string][]models.TimeSlot)
	for _, slot := range slots {
		slotsByDate[slot.AvailableDateID] = append(slotsByDate[slot.AvailableDateID], slot)
	}

	result := make([]models.AvailableDateWithSlots, len(dates))
	for i, d := range dates {
		nested := slotsByDate[d.ID]
		if nested == nil {
			nested = []models.TimeSlot{}
		}
		result[i] = models.AvailableDateWithSlots{ID: d.ID, Date: d.Date, TimeSlots: nested}
	}
	return result, nil
}
