package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studentorg/newsletter-service/internal/mailchimp"
	"github.com/studentorg/newsletter-service/internal/middleware"
	"github.com/studentorg/newsletter-service/internal/models"
	"github.com/studentorg/newsletter-service/internal/validation"
)

// ListClient is the authoritative marketing-list writer. Its errors decide
// the response.
type ListClient interface {
	Subscribe(ctx context.Context, sub models.Subscription) error
}

// SubscriberStore is the advisory backup writer. Its errors never reach
// the client.
type SubscriberStore interface {
	UpsertSubscriber(ctx context.Context, sub models.Subscription) (bool, error)
}

// Deps groups dependencies for the newsletter handler.
type Deps struct {
	List        ListClient
	Subscribers SubscriberStore // nil when the backup store is not configured
}

// RegisterNewsletterRoutes registers the subscription write path.
//
// POST /api/newsletter/subscribe
// - Validates and normalizes the email before any downstream use
// - Primary write (marketing list) is awaited; its outcome is the response
// - Secondary write (backup table) is best-effort and cannot fail the request
func RegisterNewsletterRoutes(r gin.IRoutes, deps Deps) {
	v := validation.New()

	r.POST("/api/newsletter/subscribe", func(c *gin.Context) {
		var req models.SubscribeRequest
		// An unparsable body and a missing or non-string email are the
		// same condition from the caller's perspective.
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
			return
		}
		if err := v.Struct(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
			return
		}

		sub := models.Subscription{
			Email:     validation.Normalize(req.Email),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Source:    req.Source,
		}

		if err := v.Var(sub.Email, "email_shape"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
			return
		}

		// Primary write, awaited. The authoritative outcome must be known
		// before the advisory write is attempted.
		if err := deps.List.Subscribe(c.Request.Context(), sub); err != nil {
			var apiErr *mailchimp.APIError
			switch {
			case errors.As(err, &apiErr):
				switch apiErr.Code {
				case mailchimp.CodeMemberExists:
					// Idempotent from the caller's perspective: resubmitting
					// the same address is not an error. The backup row, if
					// any, already exists too, so skip the advisory write.
					c.JSON(http.StatusOK, models.SubscribeResponse{
						Success: true,
						Message: "You're already subscribed!",
					})
				case mailchimp.CodeInvalidResource:
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address. Please check and try again."})
				default:
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe. Please try again."})
				}
			case errors.Is(err, mailchimp.ErrNotConfigured):
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Newsletter service is not configured."})
			default:
				log.Printf("newsletter subscribe: unexpected error (request %s): %v", middleware.GetRequestID(c), err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
			}
			return
		}

		backupSubscriber(c, deps.Subscribers, sub)

		c.JSON(http.StatusOK, models.SubscribeResponse{
			Success: true,
			Message: "Successfully subscribed!",
		})
	})
}

// backupSubscriber attempts the advisory write inside its own failure
// boundary. Failures and panics are logged for operators but never affect
// the response.
func backupSubscriber(c *gin.Context, subs SubscriberStore, sub models.Subscription) {
	if subs == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("newsletter backup: panic (request %s): %v", middleware.GetRequestID(c), r)
		}
	}()
	if _, err := subs.UpsertSubscriber(c.Request.Context(), sub); err != nil {
		log.Printf("newsletter backup: write failed (request %s): %v", middleware.GetRequestID(c), err)
	}
}
