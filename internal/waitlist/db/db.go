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

func (d *DB) AddEntry(entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	ctx := context.Background()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := d.Bun.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (d *DB) ListByRestaurant(restaurantID string) ([]models.WaitlistEntry, error) {
	ctx := context.Background()

	var entries []models.WaitlistEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("restaurant_id = ?", restaurantID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveEntry deletes by ID. Deleting an entry that is already gone is
// not an error.
func (d *DB) RemoveEntry(id string) error {
	ctx := context.Background()

	_, err := d.Bun.NewDelete().
		Model((*models.WaitlistEntry)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
