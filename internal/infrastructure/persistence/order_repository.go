package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ order.Repository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByProviderRef finds the order that carries the given provider order
// ID, or failing that the given AWB, in its metadata. The metadata column
// is JSON, so candidate rows are matched in Go to stay portable across
// postgres and sqlite.
func (r *GormOrderRepository) FindByProviderRef(ctx context.Context, providerOrderID, awb string) (*order.Order, error) {
	var candidates []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("metadata LIKE ? OR metadata LIKE ?",
			"%"+order.MetaShiprocketOrderID+"%",
			"%"+order.MetaShiprocketAWB+"%").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	for idx := range candidates {
		if providerOrderID != "" && candidates[idx].MetaString(order.MetaShiprocketOrderID) == providerOrderID {
			return &candidates[idx], nil
		}
	}
	for idx := range candidates {
		if awb != "" && candidates[idx].MetaString(order.MetaShiprocketAWB) == awb {
			return &candidates[idx], nil
		}
	}
	return nil, shared.ErrNotFound
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := tx.Save(&o.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
