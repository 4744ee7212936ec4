package booking

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"time"

	"github.com/stripe/stripe-go/v82"
)

var (
	ErrValidation = errors.New("invalid request payload")
	ErrNotFound   = errors.New("booking not found")
)

// OrphanedSessionError means a Stripe checkout session was opened but the
// booking row could not be stored. The customer can still pay against a
// session the backend has no record of, so callers must treat this as a
// hard failure.
type OrphanedSessionError struct {
	SessionID string
	Err       error
}

func (e *OrphanedSessionError) Error() string {
	return fmt.Sprintf("checkout session %s created but booking insert failed: %v", e.SessionID, e.Err)
}

func (e *OrphanedSessionError) Unwrap() error {
	return e.Err
}

// WebhookError carries both a client-safe message and the internal detail
// for webhook failures.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

type DBLayer interface {
	CreateBooking(b *models.Booking) (*models.Booking, error)
	GetBookingByID(id string) (*models.Booking, error)
	GetBookingBySession(sessionID string) (*models.Booking, error)
	UpdateStatusBySession(sessionID string, status models.BookingStatus) (int64, error)
	UpdateBookingStatus(id string, status models.BookingStatus) error
	ListBookingsByEmail(email string) ([]models.Booking, error)
	ListBookingsByRestaurant(restaurantID string) ([]models.Booking, error)
}

type PaymentGateway interface {
	CreateCheckoutSession(email string, details *models.BookingDetails) (string, error)
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
	RefundSession(sessionID string) (string, error)
}

type KafkaPublisher interface {
	Publish(topic, key string, value []byte) error
}

type QRGenerator interface {
	Generate(payload []byte) ([]byte, error)
}

type Service struct {
	DB      DBLayer
	Gateway PaymentGateway
	Kafka   KafkaPublisher
	QR      QRGenerator
	logger  *logger.Logger
}

func NewService(db DBLayer, gateway PaymentGateway, kafkaPub KafkaPublisher, qrGen QRGenerator, log *logger.Logger) *Service {
	return &Service{
		DB:      db,
		Gateway: gateway,
		Kafka:   kafkaPub,
		QR:      qrGen,
		logger:  log,
	}
}

// CreateCheckoutSession validates the checkout payload, opens a Stripe
// session and stores a pending booking attached to it.
func (s *Service) CreateCheckoutSession(req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: Email is required", ErrValidation)
	}
	if req.BookingDetails == nil {
		return nil, fmt.Errorf("%w: Booking details are required", ErrValidation)
	}

	d := req.BookingDetails
	switch {
	case d.RestaurantID == "":
		return nil, fmt.Errorf("%w: Missing required field: restaurantId", ErrValidation)
	case d.RestaurantName == "":
		return nil, fmt.Errorf("%w: Missing required field: restaurantName", ErrValidation)
	case d.SelectedDate == "":
		return nil, fmt.Errorf("%w: Missing required field: selectedDate", ErrValidation)
	case d.SelectedSlot == "":
		return nil, fmt.Errorf("%w: Missing required field: selectedSlot", ErrValidation)
	}
	if d.SelectedTimeSlotPrice <= 0 {
		return nil, fmt.Errorf("%w: Invalid price", ErrValidation)
	}

	s.logger.Info("CHECKOUT", fmt.Sprintf("Creating Stripe session for %s at %s (%.2f)", req.Email, d.RestaurantName, d.SelectedTimeSlotPrice))

	sessionID, err := s.Gateway.CreateCheckoutSession(req.Email, d)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	booking := &models.Booking{
		RestaurantID:    d.RestaurantID,
		RestaurantName:  d.RestaurantName,
		BookingDate:     d.SelectedDate,
		BookingTime:     d.SelectedSlot,
		Email:           req.Email,
		Price:           d.SelectedTimeSlotPrice,
		Status:          models.BookingPending,
		StripeSessionID: sessionID,
	}

	stored, err := s.DB.CreateBooking(booking)
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("Booking insert failed after session %s was created: %v", sessionID, err))
		return nil, &OrphanedSessionError{SessionID: sessionID, Err: err}
	}

	s.publishEvent(kafka.TopicBookingCreated, stored)

	return &models.CheckoutResponse{
		SessionID: sessionID,
		BookingID: stored.ID,
	}, nil
}

// HandleStripeWebhook verifies the event signature and applies the matching
// status transition. Once the signature checks out, downstream failures are
// logged but never returned, so Stripe does not retry endlessly against a
// broken database.
func (s *Service) HandleStripeWebhook(payload []byte, signature string) error {
	event, err := s.Gateway.VerifyEvent(payload, signature)
	if err != nil {
		return err
	}

	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "checkout.session.completed":
		s.applySessionTransition(event, models.BookingConfirmed, kafka.TopicBookingConfirmed)
	case "checkout.session.expired":
		s.applySessionTransition(event, models.BookingExpired, kafka.TopicBookingExpired)
	default:
		s.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
	}

	return nil
}

func (s *Service) applySessionTransition(event stripe.Event, status models.BookingStatus, topic string) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
		return
	}

	rows, err := s.DB.UpdateStatusBySession(session.ID, status)
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Error updating booking status for session %s: %v", session.ID, err))
		return
	}
	if rows == 0 {
		// Unknown or already-processed session. Retries land here.
		s.logger.Warn("WEBHOOK", fmt.Sprintf("No booking found for session %s", session.ID))
		return
	}

	s.logger.LogBooking("WEBHOOK", session.ID, fmt.Sprintf("booking moved to %s", status))

	booking, err := s.DB.GetBookingBySession(session.ID)
	if err != nil {
		s.logger.Warn("WEBHOOK", fmt.Sprintf("Could not load booking for session %s after update: %v", session.ID, err))
		return
	}
	s.publishEvent(topic, booking)
}

// GetBookingBySession looks up the booking attached to a Stripe session.
func (s *Service) GetBookingBySession(sessionID string) (*models.Booking, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrValidation)
	}

	booking, err := s.DB.GetBookingBySession(sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *Service) ListBookingsByEmail(email string) ([]models.Booking, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: Email is required", ErrValidation)
	}
	bookings, err := s.DB.ListBookingsByEmail(email)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *Service) ListBookingsByRestaurant(restaurantID string) ([]models.Booking, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant ID is required", ErrValidation)
	}
	bookings, err := s.DB.ListBookingsByRestaurant(restaurantID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// CancelBooking cancels from any state. Confirmed bookings get a refund
// attempt first; a refund failure is logged and the cancellation still
// goes through.
func (s *Service) CancelBooking(bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if booking.Status == models.BookingConfirmed && booking.StripeSessionID != "" {
		refundID, err := s.Gateway.RefundSession(booking.StripeSessionID)
		if err != nil {
			s.logger.Error("CANCEL", fmt.Sprintf("Refund failed for booking %s: %v", bookingID, err))
		} else {
			s.logger.LogBooking("CANCEL", bookingID, fmt.Sprintf("refund %s issued", refundID))
		}
	}

	if err := s.DB.UpdateBookingStatus(bookingID, models.BookingCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.BookingCancelled

	s.logger.LogBooking("CANCEL", bookingID, "booking cancelled")
	s.publishEvent(kafka.TopicBookingCancelled, booking)

	return booking, nil
}

// ConfirmationQR renders an encrypted QR code for a confirmed booking.
func (s *Service) ConfirmationQR(bookingID string) ([]byte, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("%w: booking is not confirmed", ErrValidation)
	}

	payload, err := json.Marshal(booking)
	if err != nil {
		return nil, err
	}
	return s.QR.Generate(payload)
}

func (s *Service) publishEvent(topic string, booking *models.Booking) {
	if s.Kafka == nil || booking == nil {
		return
	}

	event := models.BookingEvent{
		Type:      topic,
		BookingID: booking.ID,
		Booking:   booking,
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Failed to marshal booking event: %v", err))
		return
	}
	if err := s.Kafka.Publish(topic, booking.ID, value); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for booking %s: %v", topic, booking.ID, err))
	}
}
