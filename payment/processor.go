package payment

import "context"

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"

	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	MetadataCourseID = "course_id"
	MetadataUserID   = "user_id"
)

// CheckoutRequest describes a single-item hosted checkout.
type CheckoutRequest struct {
	AmountCents int64
	Currency    string
	Name        string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == PaymentStatusPaid
}

func (s *Session) Expired() bool {
	return s != nil && s.Status == SessionStatusExpired
}

// Processor is the external payment processor. It is the source of truth for
// payment status; callers must not trust client-echoed success flags.
type Processor interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Session, error)
	RetrieveCheckout(ctx context.Context, sessionID string) (*Session, error)
}
