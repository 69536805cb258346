package payment

import "wellness/internal/domain"

type CashPaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required" example:"5b0c1c9e-0d6f-4a53-9d1e-4a8f1b0c2d3e"`
	Amount    int64  `json:"amount" example:"1000"`
}

type GatewayOrderRequest struct {
	BookingID   string `json:"booking_id" binding:"required"`
	TotalAmount int64  `json:"total_amount" example:"1000"`
	Full        bool   `json:"full"`
}

// GatewayOrderResponse is what the checkout widget needs to open the order.
type GatewayOrderResponse struct {
	PaymentID       string             `json:"payment_id"`
	OrderID         string             `json:"order_id" example:"order_NZ8c2nWkU9Jd1a"`
	KeyID           string             `json:"key_id"`
	Currency        string             `json:"currency" example:"INR"`
	Amount          int64              `json:"amount" example:"500"`
	GatewayAmount   int64              `json:"gateway_amount" example:"50000"`
	AdvanceAmount   int64              `json:"advance_amount" example:"500"`
	RemainingAmount int64              `json:"remaining_amount" example:"500"`
	PaymentType     domain.PaymentType `json:"payment_type" example:"ADVANCE"`
	Receipt         string             `json:"receipt"`
}

type VerifyRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type RefundRequest struct {
	Reason string `json:"reason"`
}

// Result pairs a payment with the booking state it left behind.
type Result struct {
	Payment *domain.Payment `json:"payment"`
	Booking any             `json:"booking"`
}
