package ports

import "context"

// WidgetConfig is what the client needs to open the payment widget.
type WidgetConfig struct {
	PublicKey   string            `json:"public_key"`
	Reference   string            `json:"reference"`
	Email       string            `json:"email"`
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// VerifiedPayment is the provider's view of a completed transaction.
type VerifiedPayment struct {
	Reference   string
	Status      string
	AmountMinor int64
	Currency    string
	Email       string
	Metadata    map[string]string
}

// PaymentVerifier asks the payment provider whether a reference was paid.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*VerifiedPayment, error)
}

// ReferenceGuard lets exactly one caller process a payment reference.
type ReferenceGuard interface {
	Claim(ctx context.Context, reference string) (bool, error)
	Release(ctx context.Context, reference string) error
}

// PaymentEvent is a successful charge reported by the provider's webhook.
type PaymentEvent struct {
	Reference   string
	Email       string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// PaymentProcessor records a completed payment.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, ev PaymentEvent) error
}
