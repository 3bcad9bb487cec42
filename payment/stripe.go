package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"coursehub/logger"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	checkoutSessionsPath = "/v1/checkout/sessions"
	maxDescriptionLen    = 500
)

type stripeErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StripeClient talks to the Stripe checkout sessions API.
type StripeClient struct {
	client *resty.Client
	log    *logger.Logger
}

var _ Processor = (*StripeClient)(nil)

func NewStripeClient(baseURL, secretKey string, retries int, baseLog *logger.Logger) *StripeClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(secretKey).
		SetHeader("Accept", "application/json").
		SetTimeout(20 * time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(300 * time.Millisecond)

	return &StripeClient{
		client: client,
		log:    baseLog.With("client", "StripeClient"),
	}
}

func (s *StripeClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("checkout amount must be positive")
	}

	form := map[string]string{
		"mode":        "payment",
		"success_url": req.SuccessURL,
		"cancel_url":  req.CancelURL,
	}
	form["line_items[0][quantity]"] = "1"
	form["line_items[0][price_data][currency]"] = strings.ToLower(req.Currency)
	form["line_items[0][price_data][unit_amount]"] = strconv.FormatInt(req.AmountCents, 10)
	form["line_items[0][price_data][product_data][name]"] = req.Name
	if desc := truncate(req.Description, maxDescriptionLen); desc != "" {
		// Stripe rejects an empty description, so the key is only sent when set.
		form["line_items[0][price_data][product_data][description]"] = desc
	}
	for k, v := range req.Metadata {
		form["metadata["+k+"]"] = v
	}

	var session Session
	var apiErr stripeErrorEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(form).
		SetResult(&session).
		SetError(&apiErr).
		Post(checkoutSessionsPath)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create checkout session: %s", describe(resp.StatusCode(), apiErr))
	}
	if session.ID == "" || session.URL == "" {
		return nil, errors.New("create checkout session: response missing id or url")
	}

	s.log.Debug("checkout session created", "session_id", session.ID, "amount", req.AmountCents)
	return &session, nil
}

func (s *StripeClient) RetrieveCheckout(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}

	var session Session
	var apiErr stripeErrorEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetResult(&session).
		SetError(&apiErr).
		Get(checkoutSessionsPath + "/{id}")
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("retrieve checkout session: %s", describe(resp.StatusCode(), apiErr))
	}
	if session.ID != sessionID {
		return nil, fmt.Errorf("retrieve checkout session: got id %q, want %q", session.ID, sessionID)
	}
	return &session, nil
}

func describe(status int, apiErr stripeErrorEnvelope) string {
	if apiErr.Error.Message != "" {
		return fmt.Sprintf("%s (status %d)", apiErr.Error.Message, status)
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
