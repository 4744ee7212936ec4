package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              string        `bun:"id,pk" json:"id"`
	RestaurantID    string        `bun:"restaurant_id" json:"restaurant_id"`
	RestaurantName  string        `bun:"restaurant_name" json:"restaurant_name"`
	BookingDate     string        `bun:"booking_date" json:"booking_date"`
	BookingTime     string        `bun:"booking_time" json:"booking_time"`
	Email           string        `bun:"email" json:"email"`
	Price           float64       `bun:"price" json:"price"`
	Status          BookingStatus `bun:"status" json:"status"`
	StripeSessionID string        `bun:"stripe_session_id" json:"stripe_session_id"`
	CreatedAt       time.Time     `bun:"created_at,nullzero" json:"created_at,omitempty"`
}

// BookingDetails is the checkout payload the storefront sends. Field names
// mirror the frontend contract, so they stay camelCase.
type BookingDetails struct {
	RestaurantID          string  `json:"restaurantId"`
	RestaurantName        string  `json:"restaurantName"`
	SelectedDate          string  `json:"selectedDate"`
	SelectedSlot          string  `json:"selectedSlot"`
	SelectedTimeSlotPrice float64 `json:"selectedTimeSlotPrice"`
}

type CheckoutRequest struct {
	Email          string          `json:"email"`
	BookingDetails *BookingDetails `json:"bookingDetails"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	BookingID string `json:"bookingId"`
}

// BookingEvent is the Kafka payload published on lifecycle transitions.
type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	Booking   *Booking  `json:"booking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
