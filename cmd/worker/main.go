package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-bookrec-be/internal/config"
	"ai-bookrec-be/internal/pkg/logger"
	"ai-bookrec-be/internal/repository/unitofwork"
	"ai-bookrec-be/internal/service"
	"ai-bookrec-be/pkg/database"
	pktNats "ai-bookrec-be/pkg/nats"
)

// Event worker: consumes the durable NATS stream and applies feedback to
// the catalog (popularity nudges, discovery audit log). Runs separately
// from the API so event replay never competes with request traffic.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	feedback := service.NewFeedbackService(uowFactory, sysLogger)

	subscriber, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer subscriber.Close()

	if err := subscriber.Subscribe("events.chat.turn", "popularity-feedback", feedback.HandleChatTurn); err != nil {
		log.Fatalf("Failed to subscribe to chat.turn: %v", err)
	}
	if err := subscriber.Subscribe("events.book.discovered", "catalog-growth", feedback.HandleBookDiscovered); err != nil {
		log.Fatalf("Failed to subscribe to book.discovered: %v", err)
	}

	log.Println("✅ Event worker is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Event worker shutting down")
}
