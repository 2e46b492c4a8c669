// Package payments wraps the Stripe API for coin purchases. The flow is the
// usual two-step: the client asks for a payment intent, confirms it with
// Stripe directly, then posts the confirmed transaction ID back to record
// the purchase and credit coins.
package payments

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// IntentCreator creates a payment intent for the given amount and returns
// its client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, email string) (string, error)
}

type StripeClient struct{}

// NewStripeClient sets the package-level API key and returns a client.
func NewStripeClient(secretKey string) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{}
}

var _ IntentCreator = (*StripeClient)(nil)

func (c *StripeClient) CreateIntent(ctx context.Context, amountCents int64, email string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		ReceiptEmail: stripe.String(email),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ClientSecret, nil
}
