package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
)

// GormReturnRequestRepository implements returns.Repository using GORM
type GormReturnRequestRepository struct {
	db *gorm.DB
}

var _ returns.Repository = (*GormReturnRequestRepository)(nil)

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

// FindByID finds a return request by its ID
func (r *GormReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	var req returns.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindByAWB finds the return request tracking the given air waybill
func (r *GormReturnRequestRepository) FindByAWB(ctx context.Context, awb string) (*returns.ReturnRequest, error) {
	var req returns.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("shiprocket_awb = ?", awb).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindAll finds return requests with filtering
func (r *GormReturnRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requests []returns.ReturnRequest
	query := r.applyFilter(r.db.WithContext(ctx).Model(&returns.ReturnRequest{}).Preload("Items"), filter)
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindByCustomer finds return requests opened by a customer
func (r *GormReturnRequestRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]returns.ReturnRequest, error) {
	var requests []returns.ReturnRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&returns.ReturnRequest{}).Preload("Items").
			Where("customer_id = ?", customerID),
		filter,
	)
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Count counts return requests matching the filter
func (r *GormReturnRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&returns.ReturnRequest{})
	query = r.applyWhere(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a return request together with its items
func (r *GormReturnRequestRepository) Save(ctx context.Context, req *returns.ReturnRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(req).Error; err != nil {
			return err
		}
		for i := range req.Items {
			req.Items[i].RequestID = req.ID
			if err := tx.Save(&req.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check). Items are
// immutable after creation, so only the root row is updated.
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, req *returns.ReturnRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&returns.ReturnRequest{}).
			Where("id = ?", req.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != req.Version {
			return shared.ErrConcurrencyConflict
		}

		req.Version++
		req.UpdatedAt = time.Now()

		result := tx.Model(&returns.ReturnRequest{}).
			Where("id = ? AND version = ?", req.ID, currentVersion).
			Updates(map[string]any{
				"status":                 req.Status,
				"reason":                 req.Reason,
				"payment_type":           req.PaymentType,
				"refund_method":          req.RefundMethod,
				"bank_details_encrypted": req.BankDetailsEncrypted,
				"bank_account_last4":     req.BankAccountLast4,
				"approved_at":            req.ApprovedAt,
				"approved_by":            req.ApprovedBy,
				"rejected_at":            req.RejectedAt,
				"rejected_by":            req.RejectedBy,
				"rejection_reason":       req.RejectionReason,
				"pickup_initiated_at":    req.PickupInitiatedAt,
				"picked_up_at":           req.PickedUpAt,
				"received_at":            req.ReceivedAt,
				"refunded_at":            req.RefundedAt,
				"refunded_by":            req.RefundedBy,
				"shiprocket_order_id":    req.ShiprocketOrderID,
				"shiprocket_awb":         req.ShiprocketAWB,
				"shiprocket_status":      req.ShiprocketStatus,
				"version":                req.Version,
				"updated_at":             req.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// applyFilter applies pagination, ordering and field filters
func (r *GormReturnRequestRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyWhere(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, ReturnRequestSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// applyWhere applies only the field filters
func (r *GormReturnRequestRepository) applyWhere(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for field, value := range filter.Filters {
		switch field {
		case "status", "order_id", "customer_id", "type":
			query = query.Where(fmt.Sprintf("%s = ?", field), value)
		}
	}
	return query
}
