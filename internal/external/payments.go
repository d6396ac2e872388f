package external

import (
	"context"
	"fmt"

	"github.com/stagebill/stagebill-server/internal/models"
)

// CheckoutProvider creates hosted checkout sessions with the payment
// processor. Settlement arrives later through the webhook, never
// through this interface.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, inv *models.Invoice, org *models.Organization) (string, error)
}

// HostedCheckout builds redirect URLs against a configured processor
// endpoint.
type HostedCheckout struct {
	BaseURL string
}

func (p *HostedCheckout) CreateCheckout(_ context.Context, inv *models.Invoice, _ *models.Organization) (string, error) {
	if inv.AmountDue <= 0 {
		return "", fmt.Errorf("invoice %s has nothing due", inv.Number)
	}
	return fmt.Sprintf("%s/checkout?invoice=%s&amount=%.2f", p.BaseURL, inv.ID, inv.AmountDue), nil
}
