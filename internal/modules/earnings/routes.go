package earnings

import (
	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
	"wellness/internal/middleware"
)

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	earnings := rg.Group("/earnings")
	{
		earnings.GET("/businesses/:id", h.Business)
		earnings.GET("/therapists/me", middleware.RequireRole(domain.RoleTherapist), h.MyEarnings)
		earnings.GET("/therapists/:id", middleware.AdminOnly(), h.Therapist)
	}

	admin := rg.Group("/admin", middleware.AdminOnly())
	admin.PATCH("/bookings/:id/payout", h.MarkPayoutPaid)
}
