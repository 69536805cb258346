package payment

import (
	"context"

	"wellness/internal/pkg/gateway"
)

// orderGateway is the part of the payment gateway this module uses.
type orderGateway interface {
	KeyID() string
	Currency() string
	CreateOrder(ctx context.Context, amountMinor int64, notes map[string]string) (*gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
