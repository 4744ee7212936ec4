package waitlist_test

import (
	"errors"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/waitlist"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) AddEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	args := m.Called(entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaitlistEntry), args.Error(1)
}

func (m *MockDBLayer) ListByRestaurant(restaurantID string) ([]models.WaitlistEntry, error) {
	args := m.Called(restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WaitlistEntry), args.Error(1)
}

func (m *MockDBLayer) RemoveEntry(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) Publish(topic string, key string, value []byte) error {
	args := m.Called(topic, key, value)
	return args.Error(0)
}

func TestJoinValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := waitlist.NewService(mockDB, nil, logger.NewLogger())

	_, err := svc.Join(models.JoinWaitlistRequest{Email: "diner@example.com"})
	assert.ErrorIs(t, err, waitlist.ErrValidation)

	_, err = svc.Join(models.JoinWaitlistRequest{RestaurantID: "r1"})
	assert.ErrorIs(t, err, waitlist.ErrValidation)

	mockDB.AssertNotCalled(t, "AddEntry", mock.Anything)
}

func TestJoinPublishesEvent(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockKafkaProducer)
	svc := waitlist.NewService(mockDB, mockKafka, logger.NewLogger())

	stored := &models.WaitlistEntry{ID: "w1", Email: "diner@example.com", RestaurantID: "r1"}
	mockDB.On("AddEntry", mock.MatchedBy(func(e *models.WaitlistEntry) bool {
		return e.Email == "diner@example.com" && e.RestaurantID == "r1"
	})).Return(stored, nil)
	mockKafka.On("Publish", kafka.TopicWaitlistJoined, "w1", mock.Anything).Return(nil)

	entry, err := svc.Join(models.JoinWaitlistRequest{Email: "diner@example.com", RestaurantID: "r1"})

	assert.NoError(t, err)
	assert.Equal(t, "w1", entry.ID)
	mockKafka.AssertExpectations(t)
}

func TestJoinSucceedsWhenPublishFails(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockKafka := new(MockKafkaProducer)
	svc := waitlist.NewService(mockDB, mockKafka, logger.NewLogger())

	stored := &models.WaitlistEntry{ID: "w2", Email: "diner@example.com", RestaurantID: "r1"}
	mockDB.On("AddEntry", mock.Anything).Return(stored, nil)
	mockKafka.On("Publish", kafka.TopicWaitlistJoined, "w2", mock.Anything).Return(errors.New("broker down"))

	entry, err := svc.Join(models.JoinWaitlistRequest{Email: "diner@example.com", RestaurantID: "r1"})

	assert.NoError(t, err)
	assert.Equal(t, "w2", entry.ID)
}

func TestListByRestaurantNeverReturnsNil(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := waitlist.NewService(mockDB, nil, logger.NewLogger())

	mockDB.On("ListByRestaurant", "r1").Return(nil, nil)

	entries, err := svc.ListByRestaurant("r1")

	assert.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Len(t, entries, 0)
}

func TestRemoveRequiresID(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := waitlist.NewService(mockDB, nil, logger.NewLogger())

	err := svc.Remove("")
	assert.ErrorIs(t, err, waitlist.ErrValidation)

	mockDB.On("RemoveEntry", "w1").Return(nil)
	assert.NoError(t, svc.Remove("w1"))
}
