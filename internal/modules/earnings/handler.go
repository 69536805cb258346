package earnings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness/internal/middleware"
	"wellness/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Business(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	out, err := h.service.BusinessEarnings(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) MyEarnings(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	out, err := h.service.TherapistEarnings(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	summary, err := h.service.TherapistPayoutSummary(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"earnings": out, "payouts": summary})
}

func (h *Handler) Therapist(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	out, err := h.service.TherapistEarnings(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	summary, err := h.service.TherapistPayoutSummary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"earnings": out, "payouts": summary})
}

func (h *Handler) MarkPayoutPaid(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	b, err := h.service.MarkPayoutPaid(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}
