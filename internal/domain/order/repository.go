package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists orders and looks them up by the provider identifiers
// carried in their metadata.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByProviderRef(ctx context.Context, providerOrderID, awb string) (*Order, error)
	Save(ctx context.Context, o *Order) error
}
