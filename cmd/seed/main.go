// Seeds the catalog with sample tickets for local development.
package main

import (
	"context"
	"time"

	"github.com/ElmWill/acceloka/internal/config"
	"github.com/ElmWill/acceloka/internal/domain"
	"github.com/ElmWill/acceloka/internal/repository"
	"github.com/ElmWill/acceloka/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedRow struct {
	category string
	code     string
	name     string
	eventIn  time.Duration
	price    int64
	quota    int
}

var rows = []seedRow{
	{"Concert", "CON-01", "Rock Night", 30 * 24 * time.Hour, 125, 40},
	{"Concert", "CON-02", "Jazz Evening", 45 * 24 * time.Hour, 90, 25},
	{"Theater", "THE-01", "Hamlet", 20 * 24 * time.Hour, 75, 60},
	{"Theater", "THE-02", "The Tempest", 60 * 24 * time.Hour, 80, 50},
	{"Sport", "SPO-01", "Derby Final", 14 * 24 * time.Hour, 150, 100},
	{"Workshop", "WRK-01", "Pottery for Beginners", 7 * 24 * time.Hour, 35, 12},
}

func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	store, err := repository.NewStore(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	count, err := store.TicketCount(ctx)
	if err != nil {
		appLogger.Fatal("Failed to count tickets", zap.Error(err))
	}
	if count > 0 {
		appLogger.Info("Catalog already seeded, nothing to do", zap.Int("tickets", count))
		return
	}

	now := time.Now()
	for _, row := range rows {
		err := store.SeedTicket(ctx, row.category, domain.Ticket{
			Code:      row.code,
			Name:      row.name,
			EventDate: now.Add(row.eventIn),
			Price:     decimal.NewFromInt(row.price),
			Quota:     row.quota,
		})
		if err != nil {
			appLogger.Fatal("Failed to seed ticket",
				zap.String("code", row.code),
				zap.Error(err),
			)
		}
	}

	appLogger.Info("Catalog seeded", zap.Int("tickets", len(rows)))
}
