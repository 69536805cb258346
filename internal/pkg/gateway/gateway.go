package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/rs/xid"
	circuit "github.com/rubyist/circuitbreaker"

	"wellness/internal/domain"
)

// Order is a gateway-side order the client completes checkout against.
type Order struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	Receipt  string
}

// Gateway creates orders and checks checkout callback signatures.
type Gateway interface {
	KeyID() string
	Currency() string
	CreateOrder(ctx context.Context, amountMinor int64, notes map[string]string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type Config struct {
	KeyID           string
	KeySecret       string
	Currency        string
	BreakerFailures int64
	Timeout         time.Duration
}

// Razorpay calls the Razorpay orders API through a consecutive-failure breaker.
type Razorpay struct {
	cfg     Config
	client  *razorpay.Client
	breaker *circuit.Breaker
}

// NewRazorpay returns a gateway. Without credentials every call fails with
// domain.ErrConfig so the rest of the API keeps serving.
func NewRazorpay(cfg Config) *Razorpay {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	g := &Razorpay{
		cfg:     cfg,
		breaker: circuit.NewConsecutiveBreaker(cfg.BreakerFailures),
	}
	if cfg.KeyID != "" && cfg.KeySecret != "" {
		g.client = razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	}
	return g
}

func (g *Razorpay) KeyID() string    { return g.cfg.KeyID }
func (g *Razorpay) Currency() string { return g.cfg.Currency }

func (g *Razorpay) CreateOrder(ctx context.Context, amountMinor int64, notes map[string]string) (*Order, error) {
	if g.client == nil {
		return nil, fmt.Errorf("%w: payment gateway keys are not configured", domain.ErrConfig)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: order amount must be positive", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	receipt := "rcpt_" + xid.New().String()
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": g.cfg.Currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		n := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			n[k] = v
		}
		data["notes"] = n
	}

	var body map[string]interface{}
	err := g.breaker.Call(func() error {
		var callErr error
		body, callErr = g.client.Order.Create(data, nil)
		return callErr
	}, g.cfg.Timeout)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("payment gateway unavailable: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("create gateway order: response has no id")
	}
	return &Order{ID: id, Amount: amountMinor, Currency: g.cfg.Currency, Receipt: receipt}, nil
}

func (g *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if g.cfg.KeySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, g.cfg.KeySecret)
}

// MinorUnits converts base currency units to the gateway's minor units.
func MinorUnits(amount int64) int64 {
	return amount * 100
}
