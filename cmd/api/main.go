package main

import (
	"log"

	"github.com/studentorg/newsletter-service/internal/config"
	"github.com/studentorg/newsletter-service/internal/httpserver"
	"github.com/studentorg/newsletter-service/internal/mailchimp"
	"github.com/studentorg/newsletter-service/internal/store"
)

// main boots the service: config → clients → HTTP server.
func main() {
	// Load runtime config from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Marketing-list client. Constructed even when unconfigured: the
	// subscribe path reports the missing configuration per request.
	list := mailchimp.New(mailchimp.Config{
		APIKey:       cfg.MailchimpAPIKey,
		ServerPrefix: cfg.MailchimpServerPrefix,
		AudienceID:   cfg.MailchimpAudienceID,
	})

	// Backup store is advisory. When unconfigured the service runs without
	// it; when configured but unreachable, boot fails so the operator
	// notices a broken credential instead of silently losing the trail.
	var backup *store.PostgresStore
	if cfg.BackupConfigured() {
		backup, err = store.NewPostgresStore(cfg.BackupDBURL, cfg.BackupDBServiceKey)
		if err != nil {
			log.Fatal(err)
		}
		defer backup.Close()

		// Ensure the subscriber table exists so a fresh database works
		// without manual migration.
		if err := backup.EnsureSchema(); err != nil {
			log.Fatal(err)
		}
	} else {
		log.Println("backup store not configured; running without subscriber backup")
	}

	router := httpserver.NewRouter(cfg, list, backup)

	log.Printf("server started on %s (public site %s)", cfg.Addr, cfg.PublicSiteURL())
	log.Fatal(router.Run(cfg.Addr))
}
