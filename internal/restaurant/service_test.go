package restaurant_test

import (
	"database/sql"
	"errors"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/restaurant"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateRestaurant(r *models.Restaurant) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockDBLayer) GetRestaurantByID(id string) (*models.Restaurant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockDBLayer) ListRestaurants(location string) ([]models.Restaurant, error) {
	args := m.Called(location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Restaurant), args.Error(1)
}

func (m *MockDBLayer) GetRestaurantByUser(userID string) (*models.Restaurant, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restaurant), args.Error(1)
}

func (m *MockDBLayer) InsertAvailableDates(dates []models.AvailableDate) ([]models.AvailableDate, error) {
	args := m.Called(dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableDate), args.Error(1)
}

func (m *MockDBLayer) InsertTimeSlots(slots []models.TimeSlot) ([]models.TimeSlot, error) {
	args := m.Called(slots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeSlot), args.Error(1)
}

func (m *MockDBLayer) DeleteAvailableDates(ids []string) error {
	args := m.Called(ids)
	return args.Error(0)
}

func (m *MockDBLayer) ListAvailableDates(restaurantID string) ([]models.AvailableDate, error) {
	args := m.Called(restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableDate), args.Error(1)
}

func (m *MockDBLayer) ListAvailableDatesForRestaurants(restaurantIDs []string, date string) ([]models.AvailableDate, error) {
	args := m.Called(restaurantIDs, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableDate), args.Error(1)
}

func (m *MockDBLayer) ListTimeSlotsForDates(dateIDs []string, timeOfDay string) ([]models.TimeSlot, error) {
	args := m.Called(dateIDs, timeOfDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeSlot), args.Error(1)
}

func newService(db *MockDBLayer) *restaurant.Service {
	return restaurant.NewService(db, nil, logger.NewLogger())
}

func TestListWithoutFiltersIncludesEmptyRestaurants(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	restaurants := []models.Restaurant{
		{ID: "r1", Name: "The Copper Pot"},
		{ID: "r2", Name: "Harbour Grill"},
	}
	dates := []models.AvailableDate{
		{ID: "d1", RestaurantID: "r1", Date: "2026-09-05"},
	}
	slots := []models.TimeSlot{
		{ID: "s1", AvailableDateID: "d1", Time: "19:00", Price: 50},
	}

	mockDB.On("ListRestaurants", "").Return(restaurants, nil)
	mockDB.On("ListAvailableDatesForRestaurants", []string{"r1", "r2"}, "").Return(dates, nil)
	mockDB.On("ListTimeSlotsForDates", []string{"d1"}, "").Return(slots, nil)

	result, err := svc.List(models.RestaurantFilters{})

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "r1", result[0].ID)
	assert.Len(t, result[0].AvailableDates, 1)
	assert.Equal(t, "19:00", result[0].AvailableDates[0].TimeSlots[0].Time)

	// A restaurant with no availability still appears, with an empty array.
	assert.Equal(t, "r2", result[1].ID)
	assert.NotNil(t, result[1].AvailableDates)
	assert.Len(t, result[1].AvailableDates, 0)
}

func TestListWithDateFilterDropsNonMatching(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	restaurants := []models.Restaurant{
		{ID: "r1"},
		{ID: "r2"},
	}
	// Only r1 has the requested date.
	dates := []models.AvailableDate{
		{ID: "d1", RestaurantID: "r1", Date: "2026-09-05"},
	}
	slots := []models.TimeSlot{
		{ID: "s1", AvailableDateID: "d1", Time: "19:00", Price: 50},
	}

	mockDB.On("ListRestaurants", "").Return(restaurants, nil)
	mockDB.On("ListAvailableDatesForRestaurants", []string{"r1", "r2"}, "2026-09-05").Return(dates, nil)
	mockDB.On("ListTimeSlotsForDates", []string{"d1"}, "").Return(slots, nil)

	result, err := svc.List(models.RestaurantFilters{Date: "2026-09-05"})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "r1", result[0].ID)
	assert.Len(t, result[0].AvailableDates, 1)
}

func TestListWithTimeFilterDropsSlotlessDates(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	restaurants := []models.Restaurant{
		{ID: "r1"},
		{ID: "r2"},
	}
	dates := []models.AvailableDate{
		{ID: "d1", RestaurantID: "r1", Date: "2026-09-05"},
		{ID: "d2", RestaurantID: "r2", Date: "2026-09-05"},
	}
	// Only d1 has a slot at the requested time.
	slots := []models.TimeSlot{
		{ID: "s1", AvailableDateID: "d1", Time: "19:00", Price: 50},
	}

	mockDB.On("ListRestaurants", "").Return(restaurants, nil)
	mockDB.On("ListAvailableDatesForRestaurants", []string{"r1", "r2"}, "").Return(dates, nil)
	mockDB.On("ListTimeSlotsForDates", []string{"d1", "d2"}, "19:00").Return(slots, nil)

	result, err := svc.List(models.RestaurantFilters{Time: "19:00"})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "r1", result[0].ID)
	assert.Len(t, result[0].AvailableDates, 1)
	assert.Len(t, result[0].AvailableDates[0].TimeSlots, 1)
}

func TestCreateRestaurantValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	_, err := svc.Create(models.CreateRestaurantRequest{Name: "No Owner"})

	assert.ErrorIs(t, err, restaurant.ErrValidation)
	mockDB.AssertNotCalled(t, "CreateRestaurant", mock.Anything)
}

func TestGetByUserWithoutRestaurant(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	mockDB.On("GetRestaurantByUser", "u1").Return(nil, sql.ErrNoRows)

	result, err := svc.GetByUser("u1")

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestAddAvailabilityOwnershipCheckedBeforeInsert(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	mockDB.On("GetRestaurantByID", "r1").Return(&models.Restaurant{ID: "r1", UserID: "owner"}, nil)

	req := models.AddAvailabilityRequest{
		UserID: "intruder",
		AvailableDates: []models.AvailableDateInput{
			{Date: "2026-09-05", TimeSlots: []models.TimeSlotInput{{Time: "19:00", Price: 50}}},
		},
	}

	_, _, err := svc.AddAvailability("r1", req)

	assert.ErrorIs(t, err, restaurant.ErrForbidden)
	mockDB.AssertNotCalled(t, "InsertAvailableDates", mock.Anything)
	mockDB.AssertNotCalled(t, "InsertTimeSlots", mock.Anything)
}

func TestAddAvailabilityPositionalAttach(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	mockDB.On("GetRestaurantByID", "r1").Return(&models.Restaurant{ID: "r1", UserID: "owner"}, nil)

	req := models.AddAvailabilityRequest{
		UserID: "owner",
		AvailableDates: []models.AvailableDateInput{
			{Date: "2026-09-05", TimeSlots: []models.TimeSlotInput{{Time: "18:00", Price: 35}, {Time: "20:00", Price: 40}}},
			{Date: "2026-09-06", TimeSlots: []models.TimeSlotInput{{Time: "19:00", Price: 45}}},
		},
	}

	inserted := []models.AvailableDate{
		{ID: "d1", RestaurantID: "r1", Date: "2026-09-05"},
		{ID: "d2", RestaurantID: "r1", Date: "2026-09-06"},
	}
	mockDB.On("InsertAvailableDates", mock.Anything).Return(inserted, nil)
	mockDB.On("InsertTimeSlots", mock.MatchedBy(func(slots []models.TimeSlot) bool {
		return len(slots) == 3 &&
			slots[0].AvailableDateID == "d1" && slots[0].Time == "18:00" &&
			slots[1].AvailableDateID == "d1" && slots[1].Time == "20:00" &&
			slots[2].AvailableDateID == "d2" && slots[2].Time == "19:00"
	})).Return([]models.TimeSlot{
		{ID: "s1", AvailableDateID: "d1", Time: "18:00", Price: 35},
		{ID: "s2", AvailableDateID: "d1", Time: "20:00", Price: 40},
		{ID: "s3", AvailableDateID: "d2", Time: "19:00", Price: 45},
	}, nil)

	dates, slots, err := svc.AddAvailability("r1", req)

	assert.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Len(t, slots, 3)
	mockDB.AssertExpectations(t)
}

func TestAddAvailabilityCompensatesFailedSlotInsert(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	mockDB.On("GetRestaurantByID", "r1").Return(&models.Restaurant{ID: "r1", UserID: "owner"}, nil)

	req := models.AddAvailabilityRequest{
		UserID: "owner",
		AvailableDates: []models.AvailableDateInput{
			{Date: "2026-09-05", TimeSlots: []models.TimeSlotInput{{Time: "18:00", Price: 35}}},
		},
	}

	inserted := []models.AvailableDate{{ID: "d1", RestaurantID: "r1", Date: "2026-09-05"}}
	mockDB.On("InsertAvailableDates", mock.Anything).Return(inserted, nil)
	mockDB.On("InsertTimeSlots", mock.Anything).Return(nil, errors.New("constraint violation"))
	mockDB.On("DeleteAvailableDates", []string{"d1"}).Return(nil)

	_, _, err := svc.AddAvailability("r1", req)

	assert.Error(t, err)
	mockDB.AssertCalled(t, "DeleteAvailableDates", []string{"d1"})
}

func TestCreateAvailableDateValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	_, _, err := svc.CreateAvailableDate(models.CreateAvailableDateRequest{RestaurantID: "r1"})

	assert.ErrorIs(t, err, restaurant.ErrValidation)
	mockDB.AssertNotCalled(t, "InsertAvailableDates", mock.Anything)
}

func TestCreateAvailableDateExpandsSlots(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := newService(mockDB)

	req := models.CreateAvailableDateRequest{
		RestaurantID: "r1",
		Date:         "2025-01-01",
		TimeSlots: []models.TimeSlotInput{
			{Time: "19:00", Price: 50},
			{Time: "20:00", Price: 60},
		},
	}

	inserted := []models.AvailableDate{{ID: "d1", RestaurantID: "r1", Date: "2025-01-01"}}
	mockDB.On("InsertAvailableDates", mock.Anything).Return(inserted, nil)
	mockDB.On("InsertTimeSlots", mock.MatchedBy(func(slots []models.TimeSlot) bool {
		return len(slots) == 2 &&
			slots[0].AvailableDateID == "d1" && slots[0].Price == 50 &&
			slots[1].AvailableDateID == "d1" && slots[1].Price == 60
	})).Return([]models.TimeSlot{
		{ID: "s1", AvailableDateID: "d1", Time: "19:00", Price: 50},
		{ID: "s2", AvailableDateID: "d1", Time: "20:00", Price: 60},
	}, nil)

	date, slots, err := svc.CreateAvailableDate(req)

	assert.NoError(t, err)
	assert.Equal(t, "2025-01-01", date.Date)
	assert.Len(t, slots, 2)
	mockDB.AssertExpectations(t)
}
