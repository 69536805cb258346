package domain

import "time"

type Business struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID      string    `gorm:"size:36;not null;index" json:"owner_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	OpenTime     string    `gorm:"size:5;not null;default:'09:00'" json:"open_time"`
	CloseTime    string    `gorm:"size:5;not null;default:'21:00'" json:"close_time"`
	BreakMinutes int       `gorm:"not null;default:0" json:"break_minutes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Business) TableName() string { return "businesses" }

type Service struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	BusinessID      string    `gorm:"size:36;not null;index" json:"business_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Price           int64     `gorm:"not null" json:"price"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Service) TableName() string { return "services" }

// Therapist ID is the therapist's user id.
type Therapist struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	BusinessID string    `gorm:"size:36;not null;index" json:"business_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Therapist) TableName() string { return "therapists" }

type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotBooked    SlotStatus = "Booked"
)

// TherapistAvailability is a materialized slot for one therapist on one day.
type TherapistAvailability struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	TherapistID string     `gorm:"size:36;not null;uniqueIndex:idx_slot_unique,priority:1" json:"therapist_id"`
	Date        string     `gorm:"size:10;not null;uniqueIndex:idx_slot_unique,priority:2" json:"date"`
	StartTime   string     `gorm:"size:5;not null;uniqueIndex:idx_slot_unique,priority:3" json:"start_time"`
	EndTime     string     `gorm:"size:5;not null" json:"end_time"`
	Status      SlotStatus `gorm:"size:16;not null;default:'Available';index" json:"status"`
	BookingID   *string    `gorm:"size:36" json:"booking_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (TherapistAvailability) TableName() string { return "therapist_availabilities" }
