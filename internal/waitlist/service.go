package waitlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"time"
)

var ErrValidation = errors.New("invalid request payload")

type DBLayer interface {
	AddEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	ListByRestaurant(restaurantID string) ([]models.WaitlistEntry, error)
	RemoveEntry(id string) error
}

type KafkaPublisher interface {
	Publish(topic, key string, value []byte) error
}

type Service struct {
	DB     DBLayer
	Kafka  KafkaPublisher
	logger *logger.Logger
}

func NewService(db DBLayer, kafkaPub KafkaPublisher, log *logger.Logger) *Service {
	return &Service{DB: db, Kafka: kafkaPub, logger: log}
}

func (s *Service) Join(req models.JoinWaitlistRequest) (*models.WaitlistEntry, error) {
	if req.Email == "" || req.RestaurantID == "" {
		return nil, fmt.Errorf("%w: Email and restaurantId are required", ErrValidation)
	}

	entry, err := s.DB.AddEntry(&models.WaitlistEntry{
		Email:        req.Email,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("WAITLIST", fmt.Sprintf("%s joined waitlist for restaurant %s", req.Email, req.RestaurantID))

	if s.Kafka != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"entry_id":      entry.ID,
			"email":         entry.Email,
			"restaurant_id": entry.RestaurantID,
			"timestamp":     time.Now().UTC(),
		})
		if err == nil {
			if err := s.Kafka.Publish(kafka.TopicWaitlistJoined, entry.ID, payload); err != nil {
				s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish waitlist event: %v", err))
			}
		}
	}

	return entry, nil
}

func (s *Service) ListByRestaurant(restaurantID string) ([]models.WaitlistEntry, error) {
	entries, err := s.DB.ListByRestaurant(restaurantID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	return entries, nil
}

// Remove succeeds even when the entry is already gone.
func (s *Service) Remove(id string) error {
	if id == "" {
		return fmt.Errorf("%w: entry ID is required", ErrValidation)
	}
	return s.DB.RemoveEntry(id)
}
