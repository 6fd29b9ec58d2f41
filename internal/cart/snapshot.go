package cart

import (
	"encoding/json"

	"github.com/selara/backend-store/internal/domain"
)

// Snapshot is the immutable copy of a cart stored on its order. Orders keep
// the prices the customer saw even if the catalog changes afterwards.
type Snapshot struct {
	CartID       string         `json:"cartId"`
	DiscountCode *string        `json:"discountCode,omitempty"`
	Lines        []SnapshotLine `json:"lines"`
}

// SnapshotLine mirrors one cart line at checkout time.
type SnapshotLine struct {
	ProductID         string `json:"productId"`
	Title             string `json:"title"`
	Qty               int    `json:"qty"`
	UnitPrice         int64  `json:"unitPrice"`
	OriginalUnitPrice *int64 `json:"originalUnitPrice,omitempty"`
	Subtotal          int64  `json:"subtotal"`
}

// EncodeSnapshot serializes the cart state for storage on the order.
func EncodeSnapshot(cart domain.Cart, lines []domain.CartLine) ([]byte, error) {
	snap := Snapshot{
		CartID:       cart.ID.String(),
		DiscountCode: cart.DiscountCode,
		Lines:        make([]SnapshotLine, 0, len(lines)),
	}
	for _, l := range lines {
		snap.Lines = append(snap.Lines, SnapshotLine{
			ProductID:         l.ProductID.String(),
			Title:             l.Title,
			Qty:               l.Qty,
			UnitPrice:         l.UnitPrice,
			OriginalUnitPrice: l.OriginalUnitPrice,
			Subtotal:          l.Subtotal,
		})
	}
	return json.Marshal(snap)
}

// DecodeSnapshot restores a stored snapshot. Corrupt payloads yield an empty
// snapshot rather than an error so old orders stay readable.
func DecodeSnapshot(data []byte) Snapshot {
	var snap Snapshot
	if len(data) == 0 {
		return Snapshot{}
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}
	}
	return snap
}
