package main

import (
	"net/http"
	"os"
	"time"

	"dialog-backend/internal/adapters/notify/smtp"
	"dialog-backend/internal/platform/logger"
	"dialog-backend/internal/ports/notify"
	"dialog-backend/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Entrega real solo con SMTP configurado; si no, el notifier de log.
	var notifier notify.Notifier
	if smtpAddr := os.Getenv("SMTP_ADDR"); smtpAddr != "" {
		notifier = smtp.New(smtpAddr, os.Getenv("SMTP_FROM"), os.Getenv("SMTP_PASSWORD"))
	}

	r := router.NewRouter(router.Options{
		Notifier: notifier,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
