package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/returns/backend/internal/domain/shared"
)

// Repository persists return requests. Requests are never deleted;
// rejection is recorded as a terminal status instead.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	FindByAWB(ctx context.Context, awb string) (*ReturnRequest, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ReturnRequest, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]ReturnRequest, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, req *ReturnRequest) error
	SaveWithLock(ctx context.Context, req *ReturnRequest) error
}
