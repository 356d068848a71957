package modaics

import (
	"context"

	"github.com/modaics/modaics-go/internal/types"
)

// paymentService implements the PaymentService interface
type paymentService struct {
	client *Client
}

// noRetry keeps mutating payment calls to a single attempt; replaying a
// create/confirm against Stripe risks double charges.
func (s *paymentService) noRetry() *types.RetryPolicy {
	base := s.client.config().RetryPolicy()
	base.MaxAttempts = 1
	return base
}

func (s *paymentService) PurchaseItem(ctx context.Context, purchase *ItemPurchase) (*PaymentIntent, error) {
	var result PaymentIntent
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "payments_purchase_item",
		Method:       "POST",
		Path:         "/payments/intents/item",
		Body:         purchase,
		RequiresAuth: true,
		Retry:        s.noRetry(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *paymentService) Transfer(ctx context.Context, transfer *P2PTransfer) (*PaymentIntent, error) {
	var result PaymentIntent
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "payments_transfer",
		Method:       "POST",
		Path:         "/payments/intents/p2p",
		Body:         transfer,
		RequiresAuth: true,
		Retry:        s.noRetry(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *paymentService) BuyTicket(ctx context.Context, ticket *EventTicket) (*PaymentIntent, error) {
	var result PaymentIntent
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "payments_buy_ticket",
		Method:       "POST",
		Path:         "/payments/intents/ticket",
		Body:         ticket,
		RequiresAuth: true,
		Retry:        s.noRetry(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *paymentService) Confirm(ctx context.Context, paymentIntentID string) (*PaymentConfirmation, error) {
	var result PaymentConfirmation
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "payments_confirm",
		Method:       "POST",
		Path:         "/payments/intents/" + paymentIntentID + "/confirm",
		RequiresAuth: true,
		Retry:        s.noRetry(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *paymentService) RefundPayment(ctx context.Context, paymentIntentID string, amount int64) (*Refund, error) {
	body := map[string]interface{}{}
	if amount > 0 {
		body["amount"] = amount
	}

	var result Refund
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "payments_refund",
		Method:       "POST",
		Path:         "/payments/intents/" + paymentIntentID + "/refund",
		Body:         body,
		RequiresAuth: true,
		Retry:        s.noRetry(),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
