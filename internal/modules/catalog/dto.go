package catalog

import "wellness/internal/domain"

// ---------- BUSINESS ----------

type CreateBusinessRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	OpenTime     string `json:"open_time" validate:"required,clock"`
	CloseTime    string `json:"close_time" validate:"required,clock"`
	BreakMinutes int    `json:"break_minutes" validate:"gte=0,lte=240"`
}

type UpdateHoursRequest struct {
	OpenTime     string `json:"open_time" validate:"required,clock"`
	CloseTime    string `json:"close_time" validate:"required,clock"`
	BreakMinutes int    `json:"break_minutes" validate:"gte=0,lte=240"`
}

// ---------- SERVICES ----------

type CreateServiceRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=720"`
	Price           int64  `json:"price" validate:"gte=0"`
}

// ---------- THERAPISTS ----------

// CreateTherapistRequest links an existing therapist user to a business.
type CreateTherapistRequest struct {
	UserID string `json:"user_id" validate:"required,max=36"`
	Name   string `json:"name" validate:"required,max=255"`
}

type BusinessDetails struct {
	Business   *domain.Business   `json:"business"`
	Services   []domain.Service   `json:"services"`
	Therapists []domain.Therapist `json:"therapists"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
