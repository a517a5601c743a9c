package main

import (
	"context"

	"alwahis/config"
	"alwahis/pkg/logger"
	"alwahis/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// Schema stays; only rows go and ids restart from 1.
	_, err = pg.GetPool().Exec(context.Background(),
		"TRUNCATE TABLE bookings, ride_requests, rides, cars, users RESTART IDENTITY CASCADE")
	if err != nil {
		log.Error("failed to truncate tables", logger.Error(err))
		return
	}
	log.Info("truncated bookings, ride_requests, rides, cars and users")
}
