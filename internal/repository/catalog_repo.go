package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

// CatalogRepository reads the local catalog copy and upserts entries synced from the catalog owner.
type CatalogRepository interface {
	FindVenue(ctx context.Context, id string) (*models.Venue, error)
	FindTableOption(ctx context.Context, tx *gorm.DB, id string) (*models.TableOption, error)
	FindPromoter(ctx context.Context, id string) (*models.Promoter, error)
	FindEvent(ctx context.Context, id string) (*models.Event, error)
	FindExperience(ctx context.Context, id string) (*models.Experience, error)
	FindStoreItem(ctx context.Context, id string) (*models.StoreItem, error)

	UpsertVenue(ctx context.Context, v *models.Venue) error
	UpsertTableOption(ctx context.Context, t *models.TableOption) error
	UpsertPromoter(ctx context.Context, p *models.Promoter) error
	UpsertEvent(ctx context.Context, e *models.Event) error
	UpsertExperience(ctx context.Context, e *models.Experience) error
	UpsertStoreItem(ctx context.Context, s *models.StoreItem) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindVenue(ctx context.Context, id string) (*models.Venue, error) {
	var v models.Venue
	err := r.db.WithContext(ctx).
		Preload("TableOptions", func(db *gorm.DB) *gorm.DB { return db.Order("min_spend ASC, id ASC") }).
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindTableOption locks the table option row within the given transaction so concurrent
// checkouts of the same table serialize.
func (r *catalogRepository) FindTableOption(ctx context.Context, tx *gorm.DB, id string) (*models.TableOption, error) {
	var t models.TableOption
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *catalogRepository) FindPromoter(ctx context.Context, id string) (*models.Promoter, error) {
	var p models.Promoter
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *catalogRepository) FindExperience(ctx context.Context, id string) (*models.Experience, error) {
	var e models.Experience
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *catalogRepository) FindStoreItem(ctx context.Context, id string) (*models.StoreItem, error) {
	var s models.StoreItem
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertVenue replaces the venue row only; table options arrive as their own messages.
func (r *catalogRepository) UpsertVenue(ctx context.Context, v *models.Venue) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image_ref", "operating_days", "updated_at"}),
	}).Create(v).Error
}

func (r *catalogRepository) UpsertTableOption(ctx context.Context, t *models.TableOption) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"venue_id", "name", "area", "min_spend", "capacity_hint", "description", "total_available", "notes"}),
	}).Create(t).Error
}

func (r *catalogRepository) UpsertPromoter(ctx context.Context, p *models.Promoter) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "user_id"}),
	}).Create(p).Error
}

func (r *catalogRepository) UpsertEvent(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"venue_id", "name", "image_ref", "date", "female_price", "male_price", "general_price", "updated_at"}),
	}).Create(e).Error
}

func (r *catalogRepository) UpsertExperience(ctx context.Context, e *models.Experience) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image_ref", "unit_type", "capacity",
			"price_promoter", "price_female", "price_male", "price_general", "updated_at"}),
	}).Create(e).Error
}

func (r *catalogRepository) UpsertStoreItem(ctx context.Context, s *models.StoreItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image_ref", "price", "token_price"}),
	}).Create(s).Error
}
