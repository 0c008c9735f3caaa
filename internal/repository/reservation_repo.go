package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

// ReservationRepository is the ledger of booked tables used for availability counts.
type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservations []models.TableReservation) error
	DeleteByItemID(ctx context.Context, tx *gorm.DB, itemID string) error
	// CountByVenueDate returns booked counts keyed by table option id.
	CountByVenueDate(ctx context.Context, tx *gorm.DB, venueID string, date models.Date) (map[string]int, error)
	CountByTableDate(ctx context.Context, tx *gorm.DB, tableID string, date models.Date) (int64, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservations []models.TableReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&reservations).Error
}

func (r *reservationRepository) DeleteByItemID(ctx context.Context, tx *gorm.DB, itemID string) error {
	return tx.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.TableReservation{}).Error
}

func (r *reservationRepository) CountByVenueDate(ctx context.Context, tx *gorm.DB, venueID string, date models.Date) (map[string]int, error) {
	var rows []struct {
		TableOptionID string
		Booked        int
	}
	err := tx.WithContext(ctx).
		Model(&models.TableReservation{}).
		Select("table_option_id, COUNT(*) AS booked").
		Where("venue_id = ? AND date = ?", venueID, date).
		Group("table_option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TableOptionID] = row.Booked
	}
	return counts, nil
}

// CountByTableDate locks the matching ledger rows on postgres.
func (r *reservationRepository) CountByTableDate(ctx context.Context, tx *gorm.DB, tableID string, date models.Date) (int64, error) {
	var ids []uint
	q := tx.WithContext(ctx).Model(&models.TableReservation{}).Where("table_option_id = ? AND date = ?", tableID, date)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}
