package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/alert"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/config"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/db"
	httpserver "github.com/UjwalStha7/plant-monitor-backend/services/api/http"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/ingest"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/mqttingest"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/notify"
	"github.com/UjwalStha7/plant-monitor-backend/services/api/presence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := clockwork.NewRealClock()

	var store db.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := db.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.MaxReadings)
		if err != nil {
			log.Fatalf("db connection error: %v", err)
		}
		store = pgStore
		log.Printf("using postgres reading store (max %d readings)", cfg.MaxReadings)
	} else {
		store = db.NewMemoryStore(cfg.MaxReadings)
		log.Printf("using in-memory reading store (max %d readings)", cfg.MaxReadings)
	}
	defer store.Close()

	var dispatcher alert.Dispatcher = notify.NewLogDispatcher()
	if cfg.SMTPConfigured() {
		dispatcher = notify.NewMailer(notify.MailerConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			From:      cfg.AlertFrom,
			Recipient: cfg.AlertRecipient,
		})
		log.Printf("alert emails enabled (recipient=%s)", cfg.AlertRecipient)
	} else {
		log.Printf("SMTP not configured, alerts will be logged only")
	}

	engine := alert.NewEngine(alert.Config{
		Cooldown:       cfg.AlertCooldown,
		NightStartHour: cfg.NightStartHour,
		NightEndHour:   cfg.NightEndHour,
		CivilOffset:    cfg.CivilOffset,
	}, dispatcher, clock)

	tracker := presence.NewTracker(clock, cfg.FreshnessThreshold)
	svc := ingest.NewService(store, tracker, engine, clock)

	if cfg.MQTTEnabled() {
		client, err := mqttingest.Connect(ctx, mqttingest.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			Topic:     cfg.MQTTTopic,
			ClientID:  cfg.MQTTClientID,
		})
		if err != nil {
			log.Fatalf("mqtt connection error: %v", err)
		}
		bridge := mqttingest.NewBridge(client, cfg.MQTTTopic, svc)
		go bridge.Run(ctx)
	}

	srv := httpserver.New(cfg, store, svc, tracker, clock)
	log.Printf("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	engine.Wait()
}
