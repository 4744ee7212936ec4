package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID          string    `bun:"id,pk" json:"id"`
	UserID      string    `bun:"user_id" json:"user_id"`
	Name        string    `bun:"name" json:"name"`
	Description string    `bun:"description" json:"description"`
	Address     string    `bun:"address" json:"address"`
	Location    string    `bun:"location" json:"location"`
	Rating      float64   `bun:"rating" json:"rating"`
	Michelin    bool      `bun:"michelin" json:"michelin"`
	PriceRange  string    `bun:"price_range" json:"price_range"`
	Images      []string  `bun:"images,array" json:"images"`
	Features    []string  `bun:"features,array" json:"features"`
	CreatedAt   time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
}

type AvailableDate struct {
	bun.BaseModel `bun:"table:available_dates"`

	ID           string `bun:"id,pk" json:"id"`
	RestaurantID string `bun:"restaurant_id" json:"restaurant_id"`
	Date         string `bun:"date" json:"date"`
}

type TimeSlot struct {
	bun.BaseModel `bun:"table:time_slots"`

	ID              string  `bun:"id,pk" json:"id"`
	AvailableDateID string  `bun:"available_date_id" json:"available_date_id"`
	Time            string  `bun:"time" json:"time"`
	Price           float64 `bun:"price" json:"price"`
}

// AvailableDateWithSlots is the nested view returned by availability reads:
// one published date together with the slots under it.
type AvailableDateWithSlots struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	TimeSlots []TimeSlot `json:"time_slots"`
}

// RestaurantWithAvailability is a restaurant row plus its availability tree.
// AvailableDates is always present in the JSON output, empty when the
// restaurant has published nothing.
type RestaurantWithAvailability struct {
	Restaurant
	AvailableDates []AvailableDateWithSlots `json:"available_dates"`
}

// RestaurantFilters drives the listing join mode: with Date or Time set the
// listing only returns restaurants that have at least one matching row.
type RestaurantFilters struct {
	Location string
	Date     string
	Time     string
}

type CreateRestaurantRequest struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Location    string   `json:"location"`
	Rating      float64  `json:"rating"`
	Michelin    bool     `json:"michelin"`
	PriceRange  string   `json:"price_range"`
	Images      []string `json:"images"`
	Features    []string `json:"features"`
}

type TimeSlotInput struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type AvailableDateInput struct {
	Date      string          `json:"date"`
	TimeSlots []TimeSlotInput `json:"time_slots"`
}

// AddAvailabilityRequest is the owner-facing batch publish payload.
type AddAvailabilityRequest struct {
	UserID         string               `json:"user_id"`
	AvailableDates []AvailableDateInput `json:"available_dates"`
}

// CreateAvailableDateRequest publishes a single date with its slots.
type CreateAvailableDateRequest struct {
	RestaurantID string          `json:"restaurant_id"`
	Date         string          `json:"date"`
	TimeSlots    []TimeSlotInput `json:"time_slots"`
}
