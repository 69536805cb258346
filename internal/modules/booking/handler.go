package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
	"wellness/internal/middleware"
	"wellness/internal/pkg/response"
)

type Handler struct {
	service   *Service
	scheduler *Scheduler
}

func NewHandler(service *Service, scheduler *Scheduler) *Handler {
	return &Handler{service: service, scheduler: scheduler}
}

// RegisterRoutes expects rg to already run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings", h.List)
	rg.GET("/bookings/:id", h.Get)
	rg.PATCH("/bookings/:id/approve", h.Approve)
	rg.PATCH("/bookings/:id/reject", h.Reject)
	rg.PATCH("/bookings/:id/respond", h.Respond)
	rg.PATCH("/bookings/:id/release", h.Release)
	rg.PATCH("/bookings/:id/complete", h.Complete)
	rg.PATCH("/bookings/:id/reschedule", h.Reschedule)
	rg.PATCH("/bookings/:id/cancel", h.Cancel)
	rg.PATCH("/bookings/:id/no-show", h.NoShow)
	rg.PATCH("/bookings/:id/assign", h.Assign)
	rg.GET("/services/:id/slots", h.Slots)

	admin := rg.Group("/admin", middleware.AdminOnly())
	admin.POST("/bookings/expire", h.Expire)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": Present(actor, b)})
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	rows, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": PresentAll(actor, rows)})
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": Present(actor, b)})
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.Approve(c.Request.Context(), id, actor)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.Reject(c.Request.Context(), id, actor, req.Reason)
	})
}

func (h *Handler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "accept is required")
		return
	}
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.TherapistRespond(c.Request.Context(), id, actor, *req.Accept)
	})
}

func (h *Handler) Release(c *gin.Context) {
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.BusinessRelease(c.Request.Context(), id, actor)
	})
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.MarkCompleted(c.Request.Context(), id, actor)
	})
}

func (h *Handler) Reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date and time are required")
		return
	}
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.Reschedule(c.Request.Context(), id, actor, req.Date, req.Time)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.Cancel(c.Request.Context(), id, actor, req.Reason)
	})
}

func (h *Handler) NoShow(c *gin.Context) {
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.MarkNoShow(c.Request.Context(), id, actor)
	})
}

func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "therapist_id is required")
		return
	}
	h.transition(c, func(actor domain.Actor, id string) (*domain.Booking, error) {
		return h.service.AssignTherapist(c.Request.Context(), id, actor, req.TherapistID)
	})
}

func (h *Handler) Slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date is required")
		return
	}
	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("id"), c.Query("therapist_id"), date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"date": date, "slots": slots})
}

func (h *Handler) Expire(c *gin.Context) {
	var req ExpireRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	var now time.Time
	if req.Now != nil {
		now = req.Now.UTC()
	}

	var (
		res *ExpireResult
		err error
	)
	if h.scheduler != nil {
		res, err = h.scheduler.RunOnce(c.Request.Context(), now)
	} else {
		res, err = h.service.CancelExpired(c.Request.Context(), now)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) transition(c *gin.Context, fn func(actor domain.Actor, id string) (*domain.Booking, error)) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := fn(actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": Present(actor, b)})
}

func actorOrAbort(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		c.Abort()
		return domain.Actor{}, false
	}
	return actor, true
}
