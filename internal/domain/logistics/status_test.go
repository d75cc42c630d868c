package logistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"PICKED UP", CanonicalPickedUp},
		{"Pickup Completed", CanonicalPickedUp},
		{"picked_up", CanonicalPickedUp},
		{"Out For Delivery", CanonicalOutForDelivery},
		{"OUT FOR DELIVERY - RIDER ASSIGNED", CanonicalOutForDelivery},
		{"Delivered", CanonicalDelivered},
		{"DELIVERED TO CONSIGNEE", CanonicalDelivered},
		{"In Transit", CanonicalInTransit},
		{"Shipped", CanonicalInTransit},
		{"Pickup Scheduled", CanonicalPickupInitiated},
		{"PICKUP GENERATED", CanonicalPickupInitiated},
		{"Pickup Queued", CanonicalPickupInitiated},
		{"RTO Initiated", CanonicalUnknown},
		{"Lost", CanonicalUnknown},
		{"", CanonicalUnknown},
		{"   ", CanonicalUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeStatus(tt.raw)
			assert.Equal(t, tt.want, got.Canonical)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestNormalizeStatus_OutForDeliveryBeatsDelivered(t *testing.T) {
	got := NormalizeStatus("out for delivery")
	assert.Equal(t, CanonicalOutForDelivery, got.Canonical)
	assert.True(t, got.Known())
}

func TestNormalizeStatus_UnknownPreservesRaw(t *testing.T) {
	got := NormalizeStatus("Destroyed In Customs")
	assert.False(t, got.Known())
	assert.Equal(t, "Destroyed In Customs", got.Raw)
}
