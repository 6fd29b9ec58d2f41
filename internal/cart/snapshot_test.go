package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selara/backend-store/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	baseline := int64(8990)
	code := "SUMMER15"
	c := domain.Cart{ID: uuid.New(), DiscountCode: &code}
	lines := []domain.CartLine{{
		ProductID:         uuid.New(),
		Title:             "Serum",
		Qty:               3,
		UnitPrice:         7642,
		OriginalUnitPrice: &baseline,
		Subtotal:          22926,
	}}

	data, err := EncodeSnapshot(c, lines)
	require.NoError(t, err)

	snap := DecodeSnapshot(data)
	require.Equal(t, c.ID.String(), snap.CartID)
	require.NotNil(t, snap.DiscountCode)
	require.Len(t, snap.Lines, 1)
	require.Equal(t, int64(8990), *snap.Lines[0].OriginalUnitPrice)
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	require.Empty(t, DecodeSnapshot([]byte("{not json")).Lines)
	require.Empty(t, DecodeSnapshot(nil).Lines)
}
