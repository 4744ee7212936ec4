package models

import "github.com/uptrace/bun"

type WaitlistEntry struct {
	bun.BaseModel `bun:"table:waitlist"`

	ID           string `bun:"id,pk" json:"id"`
	Email        string `bun:"email" json:"email"`
	RestaurantID string `bun:"restaurant_id" json:"restaurant_id"`
}

type JoinWaitlistRequest struct {
	Email        string `json:"email"`
	RestaurantID string `json:"restaurantId"`
}
