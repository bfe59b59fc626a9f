package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/garagehq/gearbox/pkg/orgs"
)

var (
	dbURL          = flag.String("db-url", getEnv("GEARBOX_POSTGRES_URL", "postgres://localhost/gearbox?sslmode=disable"), "PostgreSQL connection URL")
	inviteSchedule = flag.String("invite-schedule", "20 0 * * *", "Cron schedule for expired invitation cleanup (default: 00:20 UTC)")
	purgeSchedule  = flag.String("purge-schedule", "40 0 * * 0", "Cron schedule for deleted account purge (default: Sunday 00:40 UTC)")
	purgeRetention = flag.Duration("purge-retention", 90*24*time.Hour, "How long soft-deleted accounts are kept before purge")
	runOnce        = flag.Bool("run-once", false, "Run all cleanup jobs once and exit (for testing)")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}

	service := orgs.NewPostgresService(db)

	// Run once mode (for testing or manual cleanup)
	if *runOnce {
		if err := cleanupInvitations(service, logger); err != nil {
			logger.WithError(err).Fatal("Invitation cleanup failed")
		}
		if err := purgeDeletedAccounts(service, logger, *purgeRetention); err != nil {
			logger.WithError(err).Fatal("Account purge failed")
		}
		logger.Info("Cleanup completed successfully")
		return
	}

	// Scheduled mode
	c := cron.New()

	_, err = c.AddFunc(*inviteSchedule, func() {
		if err := cleanupInvitations(service, logger); err != nil {
			logger.WithError(err).Error("Invitation cleanup failed")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to schedule invitation cleanup")
	}

	_, err = c.AddFunc(*purgeSchedule, func() {
		if err := purgeDeletedAccounts(service, logger, *purgeRetention); err != nil {
			logger.WithError(err).Error("Account purge failed")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to schedule account purge")
	}

	c.Start()
	logger.Info("Gearbox Janitor started")
	logger.Infof("Invitation cleanup schedule: %s", *inviteSchedule)
	logger.Infof("Account purge schedule: %s (retention %s)", *purgeSchedule, *purgeRetention)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()

	logger.Info("Janitor stopped")
}

func cleanupInvitations(service *orgs.PostgresService, logger *logrus.Logger) error {
	ctx := context.Background()

	removed, err := service.CleanupExpiredInvitations(ctx)
	if err != nil {
		return err
	}
	logger.WithField("removed", removed).Info("Expired invitations cleaned up")
	return nil
}

func purgeDeletedAccounts(service *orgs.PostgresService, logger *logrus.Logger, retention time.Duration) error {
	ctx := context.Background()

	purged, err := service.PurgeDeletedActors(ctx, retention)
	if err != nil {
		return err
	}
	logger.WithField("purged", purged).Info("Soft-deleted accounts purged")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
