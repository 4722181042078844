package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/clients"
	"wellness-service/internal/services"
)

// CheckoutHandlers receives payment provider webhooks and routes them
// to the flow that opened the checkout session.
type CheckoutHandlers struct {
	checkout      *clients.CheckoutClient
	subscriptions *services.SubscriptionService
	scheduler     *services.SchedulerService
	logger        *logrus.Logger
}

// NewCheckoutHandlers creates new checkout handlers
func NewCheckoutHandlers(checkout *clients.CheckoutClient, subscriptions *services.SubscriptionService, scheduler *services.SchedulerService, logger *logrus.Logger) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkout:      checkout,
		subscriptions: subscriptions,
		scheduler:     scheduler,
		logger:        logger,
	}
}

// Webhook handles payment confirmations. Dispatch is driven by the
// "origin" metadata stamped when the session was created.
func (h *CheckoutHandlers) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Failed to read webhook payload", err)
		return
	}

	event, err := h.checkout.ParseWebhook(payload, c.GetHeader("X-Checkout-Signature"))
	if err != nil {
		h.logger.WithError(err).Warn("Rejected checkout webhook")
		ErrorResponse(c, http.StatusUnauthorized, "Invalid webhook signature", err)
		return
	}

	if event.Status != "completed" {
		h.logger.WithFields(logrus.Fields{
			"session_id": event.SessionID,
			"status":     event.Status,
		}).Info("Ignoring non-completed checkout event")
		SuccessResponse(c, http.StatusOK, "Event ignored", nil)
		return
	}

	switch event.Metadata["origin"] {
	case "company-subscription":
		h.handleSubscriptionPayment(c, event)
	case "book-medical-appointment":
		h.handleAppointmentPayment(c, event)
	default:
		h.logger.WithField("origin", event.Metadata["origin"]).Warn("Unknown checkout origin")
		ErrorResponse(c, http.StatusBadRequest, "Unknown checkout origin", nil)
	}
}

func (h *CheckoutHandlers) handleSubscriptionPayment(c *gin.Context, event *clients.WebhookEvent) {
	companyID, err := uuid.Parse(event.Metadata["company_id"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid company id in metadata", err)
		return
	}
	subscriptionID, err := uuid.Parse(event.Metadata["subscription_id"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid subscription id in metadata", err)
		return
	}

	if err := h.subscriptions.ConfirmBillPayment(c.Request.Context(), companyID, subscriptionID); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Bill payment confirmed", nil)
}

func (h *CheckoutHandlers) handleAppointmentPayment(c *gin.Context, event *clients.WebhookEvent) {
	appointmentID, err := uuid.Parse(event.Metadata["appointment_id"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid appointment id in metadata", err)
		return
	}
	contractorID, err := uuid.Parse(event.Metadata["contractor_id"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid contractor id in metadata", err)
		return
	}
	collaboratorID, err := uuid.Parse(event.Metadata["collaborator_id"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid collaborator id in metadata", err)
		return
	}
	date, err := time.Parse(time.RFC3339, event.Metadata["date"])
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid date in metadata", err)
		return
	}

	if err := h.scheduler.ConfirmAppointment(c.Request.Context(), appointmentID, contractorID, collaboratorID, date, event.Metadata["place"]); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Appointment confirmed", nil)
}
