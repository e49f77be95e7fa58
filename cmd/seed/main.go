package main

import (
	"context"
	"time"

	"finhistory/internal/config"
	"finhistory/internal/logging"
	"finhistory/internal/models"
	"finhistory/internal/repositories"

	"go.uber.org/zap"
)

// Seeds demo history for SEED_USER_ID. With SEED_RESET=true the user's
// existing rows are removed first.
func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.Production)
	defer func() { _ = log.Sync() }()

	userID := int64(config.GetIntEnv("SEED_USER_ID", 0))
	if userID == 0 {
		log.Fatal("SEED_USER_ID must be set to a non-zero user id")
	}

	cfg.Database.AutoMigrate = true
	db, err := repositories.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	ctx := context.Background()
	if config.GetBoolEnv("SEED_RESET", false) {
		if err := repositories.DeleteUserHistory(ctx, db, userID); err != nil {
			log.Fatal("Failed to reset history", zap.Error(err))
		}
	}

	transactions, investments := demoHistory(userID, time.Now().UTC())
	if err := repositories.Seed(ctx, db, transactions, investments); err != nil {
		log.Fatal("Failed to seed history", zap.Error(err))
	}

	log.Info("History seeded",
		zap.Int64("user_id", userID),
		zap.Int("transactions", len(transactions)),
		zap.Int("investments", len(investments)))
}

func demoHistory(userID int64, now time.Time) ([]models.Transaction, []models.Investment) {
	typ := func(s string) *string { return &s }
	day := 24 * time.Hour

	transactions := []models.Transaction{
		{UserID: userID, Type: typ("deposit"), Amount: 500, Status: "completed", CreatedAt: now.Add(-10 * day)},
		{UserID: userID, Type: typ("Deposit"), Amount: 1200, Status: "completed", CreatedAt: now.Add(-6 * day)},
		{UserID: userID, Type: typ("withdrawal"), Amount: 150, Status: "pending", CreatedAt: now.Add(-2 * day)},
		{UserID: userID, Type: typ("WITHDRAWAL"), Amount: 75, Status: "rejected", CreatedAt: now.Add(-day)},
		{UserID: userID, Type: typ("bonus"), Amount: 20, Status: "completed", CreatedAt: now.Add(-3 * day)},
	}

	matured := now.Add(-day)
	investments := []models.Investment{
		{UserID: userID, PlanName: "Starter", Amount: 300, ROI: 8, Duration: "7 days", Status: "completed",
			StartDate: now.Add(-8 * day), EndDate: &matured, CreatedAt: now.Add(-8 * day)},
		{UserID: userID, PlanName: "Gold", Amount: 1000, ROI: 18, Duration: "30 days", Status: "active",
			StartDate: now.Add(-5 * day), CreatedAt: now.Add(-5 * day)},
	}
	return transactions, investments
}
