package db

import (
	"context"
	"ms-reservations/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func NewDB(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) CreateBooking(b *models.Booking) (*models.Booking, error) {
	ctx := context.Background()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err := d.Bun.NewInsert().Model(b).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	ctx := context.Background()

	booking := new(models.Booking)
	err := d.Bun.NewSelect().
		Model(booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (d *DB) GetBookingBySession(sessionID string) (*models.Booking, error) {
	ctx := context.Background()

	booking := new(models.Booking)
	err := d.Bun.NewSelect().
		Model(booking).
		Where("stripe_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateStatusBySession transitions every booking attached to the Stripe
// session and reports how many rows changed. Zero rows is not an error,
// webhook retries land here.
func (d *DB) UpdateStatusBySession(sessionID string, status models.BookingStatus) (int64, error) {
	ctx := context.Background()

	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("stripe_session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) UpdateBookingStatus(id string, status models.BookingStatus) error {
	ctx := context.Background()

	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListBookingsByEmail(email string) ([]models.Booking, error) {
	ctx := context.Background()

	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("email = ?", email).
		Order("booking_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (d *DB) ListBookingsByRestaurant(restaurantID string) ([]models.Booking, error) {
	ctx := context.Background()

	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("restaurant_id = ?", restaurantID).
		Order("booking_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
