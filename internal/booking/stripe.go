package booking

import (
	"fmt"
	"math"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrStripeClientInitFailed = fmt.Errorf("failed to initialize Stripe client")

// StripeGateway talks to the Stripe API for checkout sessions, webhook
// verification and refunds.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	appBaseURL    string
	log           *logger.Logger
}

func NewStripeGateway(secretKey, webhookSecret, appBaseURL string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
		appBaseURL:    appBaseURL,
		log:           log,
	}, nil
}

// CreateCheckoutSession opens a hosted Stripe checkout for one reservation
// and returns the session ID.
func (g *StripeGateway) CreateCheckoutSession(email string, details *models.BookingDetails) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:      stripe.String(email),
		SuccessURL:         stripe.String(g.appBaseURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(g.appBaseURL + "/booking/cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Reservation at %s", details.RestaurantName)),
						Description: stripe.String(fmt.Sprintf("%s at %s", details.SelectedDate, details.SelectedSlot)),
					},
					UnitAmount: stripe.Int64(int64(math.Round(details.SelectedTimeSlotPrice * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("restaurantId", details.RestaurantID)
	params.AddMetadata("restaurantName", details.RestaurantName)
	params.AddMetadata("bookingDate", details.SelectedDate)
	params.AddMetadata("bookingTime", details.SelectedSlot)
	params.AddMetadata("createdAt", time.Now().UTC().Format(time.RFC3339))

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session: %v", err))
		return "", err
	}

	g.log.Info("STRIPE", fmt.Sprintf("Checkout session created: %s", session.ID))
	return session.ID, nil
}

// VerifyEvent checks the webhook signature and decodes the event.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	if g.webhookSecret == "" {
		g.log.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return stripe.Event{}, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, opts)
	if err != nil {
		g.log.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return stripe.Event{}, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   fmt.Sprintf("Webhook Error: %v", err),
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}
	return event, nil
}

// RefundSession refunds the payment behind a completed checkout session.
func (g *StripeGateway) RefundSession(sessionID string) (string, error) {
	sessionParams := &stripe.CheckoutSessionParams{}
	sessionParams.AddExpand("payment_intent")

	session, err := g.client.CheckoutSessions.Get(sessionID, sessionParams)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}
	if session.PaymentIntent == nil {
		return "", fmt.Errorf("checkout session %s has no payment intent", sessionID)
	}

	refund, err := g.client.Refunds.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(session.PaymentIntent.ID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to refund payment intent %s: %w", session.PaymentIntent.ID, err)
	}

	g.log.Info("STRIPE", fmt.Sprintf("Refund %s issued for session %s", refund.ID, sessionID))
	return refund.ID, nil
}
