package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm/clause"

	"wellness/internal/config"
	"wellness/internal/database"
	"wellness/internal/domain"
	"wellness/internal/modules/booking"
	jwtsvc "wellness/internal/pkg/jwt"
	"wellness/internal/pkg/logger"
	"wellness/internal/repository"
)

type demoUser struct {
	id   string
	role domain.UserRole
}

var users = []demoUser{
	{"admin-1", domain.RoleAdmin},
	{"owner-1", domain.RoleBusiness},
	{"owner-2", domain.RoleBusiness},
	{"ther-1", domain.RoleTherapist},
	{"ther-2", domain.RoleTherapist},
	{"ther-3", domain.RoleTherapist},
	{"cust-1", domain.RoleCustomer},
	{"cust-2", domain.RoleCustomer},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{"therapist_availabilities", "payments", "bookings", "therapists", "services", "businesses"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	log.Println("Creating catalog...")
	businesses := []domain.Business{
		{ID: "biz-1", OwnerID: "owner-1", Name: "Lotus Wellness", OpenTime: "09:00", CloseTime: "21:00", BreakMinutes: 15},
		{ID: "biz-2", OwnerID: "owner-2", Name: "Banyan Spa", OpenTime: "10:00", CloseTime: "20:00", BreakMinutes: 10},
	}
	services := []domain.Service{
		{ID: "svc-1", BusinessID: "biz-1", Name: "Abhyanga massage", DurationMinutes: 60, Price: 1800},
		{ID: "svc-2", BusinessID: "biz-1", Name: "Foot reflexology", DurationMinutes: 30, Price: 700},
		{ID: "svc-3", BusinessID: "biz-2", Name: "Deep tissue massage", DurationMinutes: 90, Price: 2600},
	}
	therapists := []domain.Therapist{
		{ID: "ther-1", BusinessID: "biz-1", Name: "Meera"},
		{ID: "ther-2", BusinessID: "biz-1", Name: "Arjun"},
		{ID: "ther-3", BusinessID: "biz-2", Name: "Kavya"},
	}
	for _, rows := range []any{&businesses, &services, &therapists} {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
			log.Fatal("catalog insert failed:", err)
		}
	}

	log.Println("Creating bookings...")
	svc := booking.NewService(repository.NewStore(db), nil, zlog.Named("seed"), booking.Config{
		Location:              cfg.Location(),
		RescheduleWindow:      cfg.RescheduleWindow,
		TherapistSharePercent: cfg.TherapistSharePercent,
	})
	ctx := context.Background()
	day := time.Now().In(cfg.Location()).AddDate(0, 0, 2).Format("2006-01-02")
	customer := domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	owner := domain.Actor{ID: "owner-1", Role: domain.RoleBusiness}

	requests := []struct {
		actor domain.Actor
		req   booking.CreateBookingRequest
	}{
		{customer, booking.CreateBookingRequest{ServiceID: "svc-1", TherapistID: "ther-1", Date: day, Time: "10:00"}},
		{customer, booking.CreateBookingRequest{ServiceID: "svc-2", Date: day, Time: "12:00"}},
		{owner, booking.CreateBookingRequest{CustomerID: "cust-2", ServiceID: "svc-1", TherapistID: "ther-2", Date: day, Time: "15:00"}},
	}
	for _, r := range requests {
		b, err := svc.CreateBooking(ctx, r.actor, r.req)
		if err != nil {
			log.Fatalf("create booking failed: %v", err)
		}
		log.Printf("booking %s %s %s assigned_by_admin=%t", b.ID, b.Date, b.Time, b.AssignedByAdmin)
	}

	j := jwtsvc.New(cfg.JWTSecret, 30*24*time.Hour)
	log.Println("Seed completed! Tokens (30 days):")
	for _, u := range users {
		token, err := j.GenerateToken(u.id, u.role)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-8s %-9s %s\n", u.id, u.role, token)
	}
}
