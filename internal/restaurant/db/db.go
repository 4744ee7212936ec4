package db

import (
	"context"
	"ms-reservations/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func NewDB(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// ---------------- RESTAURANTS ----------------

// CreateRestaurant → insert new restaurant, generating the id
func (d *DB) CreateRestaurant(r *models.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := d.Bun.NewInsert().Model(r).Exec(context.Background())
	return err
}

// GetRestaurantByID → fetch one restaurant by its ID
func (d *DB) GetRestaurantByID(id string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := d.Bun.NewSelect().
		Model(&r).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRestaurants → all restaurants, optionally narrowed by location
func (d *DB) ListRestaurants(location string) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	q := d.Bun.NewSelect().Model(&restaurants)
	if location != "" {
		q = q.Where("location = ?", location)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// GetRestaurantByUser → best-effort first restaurant owned by the user
func (d *DB) GetRestaurantByUser(userID string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := d.Bun.NewSelect().
		Model(&r).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ---------------- AVAILABILITY ----------------

// InsertAvailableDates → insert the batch and hand back the rows with their
// generated ids, preserving input order
func (d *DB) InsertAvailableDates(dates []models.AvailableDate) ([]models.AvailableDate, error) {
	if len(dates) == 0 {
		return dates, nil
	}
	for i := range dates {
		if dates[i].ID == "" {
			dates[i].ID = uuid.NewString()
		}
	}
	_, err := d.Bun.NewInsert().Model(&dates).Exec(context.Background())
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// InsertTimeSlots → insert slots already attached to their parent date ids
func (d *DB) InsertTimeSlots(slots []models.TimeSlot) ([]models.TimeSlot, error) {
	if len(slots) == 0 {
		return slots, nil
	}
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
	}
	_, err := d.Bun.NewInsert().Model(&slots).Exec(context.Background())
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// DeleteAvailableDates removes date rows by ID. Used to compensate a failed
// slot insert so half-published availability does not linger.
func (d *DB) DeleteAvailableDates(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := d.Bun.NewDelete().
		Model((*models.AvailableDate)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(context.Background())
	return err
}

// ListAvailableDates → all published dates for one restaurant
func (d *DB) ListAvailableDates(restaurantID string) ([]models.AvailableDate, error) {
	var dates []models.AvailableDate
	err := d.Bun.NewSelect().
		Model(&dates).
		Where("restaurant_id = ?", restaurantID).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// ListAvailableDatesForRestaurants → dates for a set of restaurants,
// optionally narrowed to a single calendar date
func (d *DB) ListAvailableDatesForRestaurants(restaurantIDs []string, date string) ([]models.AvailableDate, error) {
	if len(restaurantIDs) == 0 {
		return []models.AvailableDate{}, nil
	}
	var dates []models.AvailableDate
	q := d.Bun.NewSelect().
		Model(&dates).
		Where("restaurant_id IN (?)", bun.In(restaurantIDs))
	if date != "" {
		q = q.Where("date = ?", date)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return dates, nil
}

// ListTimeSlotsForDates → slots under a set of dates, optionally narrowed to
// one time of day
func (d *DB) ListTimeSlotsForDates(dateIDs []string, timeOfDay string) ([]models.TimeSlot, error) {
	if len(dateIDs) == 0 {
		return []models.TimeSlot{}, nil
	}
	var slots []models.TimeSlot
	q := d.Bun.NewSelect().
		Model(&slots).
		Where("available_date_id IN (?)", bun.In(dateIDs))
	if timeOfDay != "" {
		q = q.Where("time = ?", timeOfDay)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return slots, nil
}
