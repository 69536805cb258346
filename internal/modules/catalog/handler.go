package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
	"wellness/internal/middleware"
	"wellness/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	businesses := rg.Group("/businesses")
	{
		businesses.GET("", h.ListBusinesses)
		businesses.GET("/:id", h.GetBusiness)
		businesses.POST("", middleware.RequireRole(domain.RoleBusiness, domain.RoleAdmin), h.CreateBusiness)
		businesses.PATCH("/:id/hours", h.UpdateHours)
		businesses.POST("/:id/services", h.AddService)
		businesses.POST("/:id/therapists", h.AddTherapist)
	}
}

// fail writes field details for validation errors and falls back to the
// domain error table for everything else.
func fail(c *gin.Context, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		_ = c.Error(err)
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request", verr.Fields)
		return
	}
	response.FromError(c, err)
}

/* ---------- BUSINESS HANDLERS ---------- */

// ListBusinesses handles GET /api/v1/businesses?page=&limit=
func (h *Handler) ListBusinesses(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, p, err := h.service.ListBusinesses(c.Request.Context(), page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"businesses": rows, "pagination": p})
}

// GetBusiness handles GET /api/v1/businesses/:id
func (h *Handler) GetBusiness(c *gin.Context) {
	out, err := h.service.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// CreateBusiness handles POST /api/v1/businesses
func (h *Handler) CreateBusiness(c *gin.Context) {
	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	actor, _ := middleware.ActorFrom(c)
	biz, err := h.service.CreateBusiness(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"business": biz})
}

// UpdateHours handles PATCH /api/v1/businesses/:id/hours
func (h *Handler) UpdateHours(c *gin.Context) {
	var req UpdateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	actor, _ := middleware.ActorFrom(c)
	biz, err := h.service.UpdateHours(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"business": biz})
}

/* ---------- SERVICE & THERAPIST HANDLERS ---------- */

// AddService handles POST /api/v1/businesses/:id/services
func (h *Handler) AddService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	actor, _ := middleware.ActorFrom(c)
	svc, err := h.service.AddService(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"service": svc})
}

// AddTherapist handles POST /api/v1/businesses/:id/therapists
func (h *Handler) AddTherapist(c *gin.Context) {
	var req CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	actor, _ := middleware.ActorFrom(c)
	t, err := h.service.AddTherapist(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"therapist": t})
}
