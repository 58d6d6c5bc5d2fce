package invoice

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

// Invoice is the immutable record issued for exactly one paid order.
// Amounts are snapshots taken at issuance; the invoice never changes after
// creation and is never deleted by the engine.
type Invoice struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"invoice_number"`
	OrderNumber   string              `json:"order_number"`
	TotalAmount   money.Money         `json:"total_amount"`
	TaxAmount     money.Money         `json:"tax_amount"`
	FinalAmount   money.Money         `json:"final_amount"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	IssuedBy      *uuid.UUID          `json:"issued_by,omitempty"`
	IssuedAt      time.Time           `json:"issued_at"`
}
