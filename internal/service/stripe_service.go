package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeService is the payment-authorization collaborator. Deposits are
// charged in yen (a zero-decimal currency, so amounts pass through
// unscaled) via PaymentIntents; the guest's browser confirms the intent
// with the client secret.
type StripeService struct{}

func NewStripeService(secretKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{}
}

func (s *StripeService) CreateDepositIntent(ctx context.Context, amount int64, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(string(stripe.CurrencyJPY)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("error creating payment intent: %w", err)
	}
	return intent.ClientSecret, intent.ID, nil
}

// VerifyDeposit confirms the intent exists, succeeded, and charged
// exactly the server-computed deposit. Anything else is treated as a
// declined payment.
func (s *StripeService) VerifyDeposit(ctx context.Context, intentID string, expectedAmount int64) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		return fmt.Errorf("error fetching payment intent %s: %w", intentID, err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent %s has status %s", intentID, intent.Status)
	}
	if intent.Amount != expectedAmount {
		return fmt.Errorf("payment intent %s amount %d does not match required deposit %d", intentID, intent.Amount, expectedAmount)
	}
	return nil
}
