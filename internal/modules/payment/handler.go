package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
	"wellness/internal/middleware"
	"wellness/internal/modules/booking"
	"wellness/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/cash", middleware.RequireRole(domain.RoleCustomer), h.RecordCash)
	rg.POST("/payments/gateway/order", h.CreateOrder)
	rg.POST("/payments/gateway/verify", h.Verify)
	rg.PATCH("/payments/:id/confirm-cash", middleware.RequireRole(domain.RoleBusiness, domain.RoleAdmin), h.ConfirmCash)
	rg.PATCH("/payments/:id/refund", middleware.AdminOnly(), h.Refund)
	rg.GET("/bookings/:id/payments", h.ListForBooking)
}

// RecordCash godoc
// @Summary      Pay for a booking in cash
// @Description  Records a pending cash payment and confirms the booking
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CashPaymentRequest true "Cash payment"
// @Router       /payments/cash [post]
func (h *Handler) RecordCash(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	var req CashPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	p, b, err := h.service.RecordCashPayment(c.Request.Context(), req.BookingID, actor, req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, Result{Payment: p, Booking: booking.Present(actor, b)})
}

// CreateOrder godoc
// @Summary      Open a gateway order
// @Description  Creates a gateway order for the advance or the full amount
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body GatewayOrderRequest true "Order"
// @Success      201 {object} GatewayOrderResponse
// @Router       /payments/gateway/order [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	var req GatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	resp, err := h.service.RecordGatewayOrder(c.Request.Context(), req.BookingID, actor, req.TotalAmount, req.Full)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// Verify godoc
// @Summary      Verify a gateway checkout
// @Description  Checks the checkout signature and settles the booking (idempotent)
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body VerifyRequest true "Checkout callback"
// @Failure      402 {object} map[string]any
// @Router       /payments/gateway/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	p, b, err := h.service.VerifyGatewayPayment(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, Result{Payment: p, Booking: booking.Present(actor, b)})
}

func (h *Handler) ConfirmCash(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	p, b, err := h.service.ConfirmCashPayment(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, Result{Payment: p, Booking: booking.Present(actor, b)})
}

func (h *Handler) Refund(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	var req RefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	p, err := h.service.RefundPayment(c.Request.Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListForBooking(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	rows, err := h.service.ListForBooking(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": rows})
}
