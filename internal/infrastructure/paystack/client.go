// Package paystack talks to the Paystack payment API: server-side
// transaction verification and webhook signature checks.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loga-alumni/portal/internal/core/ports"
)

const DefaultBaseURL = "https://api.paystack.co"

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

var ErrBadSignature = errors.New("paystack: invalid webhook signature")

type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    transaction `json:"data"`
}

type transaction struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Customer  customer        `json:"customer"`
	Metadata  json.RawMessage `json:"metadata"`
}

type customer struct {
	Email string `json:"email"`
}

// metadata is an object when set at checkout and an empty string otherwise.
func (t transaction) metadata() map[string]string {
	out := map[string]string{}
	if len(t.Metadata) == 0 || t.Metadata[0] != '{' {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal(t.Metadata, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Verify implements ports.PaymentVerifier.
func (c *Client) Verify(ctx context.Context, reference string) (*ports.VerifiedPayment, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("paystack verify: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Status {
		return nil, fmt.Errorf("paystack verify %s: %d %s", reference, resp.StatusCode, env.Message)
	}

	return &ports.VerifiedPayment{
		Reference:   env.Data.Reference,
		Status:      env.Data.Status,
		AmountMinor: env.Data.Amount,
		Currency:    env.Data.Currency,
		Email:       env.Data.Customer.Email,
		Metadata:    env.Data.metadata(),
	}, nil
}

type webhookEvent struct {
	Event string      `json:"event"`
	Data  transaction `json:"data"`
}

// ParseWebhook checks the signature of a webhook body and returns the
// successful charge it reports. ok is false for any other event type.
func (c *Client) ParseWebhook(body []byte, signature string) (ev ports.PaymentEvent, ok bool, err error) {
	if !c.validSignature(body, signature) {
		return ports.PaymentEvent{}, false, ErrBadSignature
	}

	var we webhookEvent
	if err := json.Unmarshal(body, &we); err != nil {
		return ports.PaymentEvent{}, false, fmt.Errorf("paystack webhook: decode: %w", err)
	}
	if we.Event != "charge.success" || we.Data.Status != "success" {
		return ports.PaymentEvent{}, false, nil
	}

	return ports.PaymentEvent{
		Reference:   we.Data.Reference,
		Email:       we.Data.Customer.Email,
		AmountMinor: we.Data.Amount,
		Currency:    we.Data.Currency,
		Metadata:    we.Data.metadata(),
	}, true, nil
}

func (c *Client) validSignature(body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	return hmac.Equal(got, Sign(body, c.secretKey))
}

// Sign computes the webhook signature of body.
func Sign(body []byte, secretKey string) []byte {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return mac.Sum(nil)
}
