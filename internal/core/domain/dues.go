package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the state of a single dues payment record.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

const (
	DuesReferencePrefix     = "dues_"
	DonationReferencePrefix = "donate_"
)

// DuesPayment is an append-only record of a membership dues payment.
type DuesPayment struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	UserID      string        `bson:"userId"        json:"user_id"`
	Amount      int64         `bson:"amount"        json:"amount"`
	Currency    string        `bson:"currency"      json:"currency"`
	Status      PaymentStatus `bson:"status"        json:"status"`
	PaymentDate time.Time     `bson:"paymentDate"   json:"payment_date"`
	NextDueDate time.Time     `bson:"nextDueDate"   json:"next_due_date"`
	Reference   string        `bson:"reference"     json:"reference"`
}

func (p DuesPayment) DocID() string { return p.ID }

// Donation is an append-only record of a completed donation.
type Donation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name"          json:"name"`
	Email     string    `bson:"email"         json:"email"`
	Amount    int64     `bson:"amount"        json:"amount"`
	Currency  string    `bson:"currency"      json:"currency"`
	Reference string    `bson:"reference"     json:"reference"`
	CreatedAt time.Time `bson:"createdAt"     json:"created_at"`
}

func (d Donation) DocID() string { return d.ID }

// NewPaymentReference builds the widget reference for kind ("dues_" or "donate_").
func NewPaymentReference(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

// IsDuesReference reports whether ref was issued by a dues checkout.
func IsDuesReference(ref string) bool {
	return strings.HasPrefix(ref, DuesReferencePrefix)
}

// DuesProjection is the cached dues state written onto an Identity.
type DuesProjection struct {
	Status          DuesStatus
	LastDuesPayment *time.Time
	NextDueDate     *time.Time
}

// ProjectDues derives the cached state from payment history: paid while the
// latest paid payment's next due date is still ahead of now.
func ProjectDues(payments []DuesPayment, now time.Time) DuesProjection {
	var latest *DuesPayment
	for i := range payments {
		p := &payments[i]
		if p.Status != PaymentPaid {
			continue
		}
		if latest == nil || p.PaymentDate.After(latest.PaymentDate) {
			latest = p
		}
	}
	if latest == nil {
		return DuesProjection{Status: DuesPending}
	}
	paid, next := latest.PaymentDate, latest.NextDueDate
	proj := DuesProjection{Status: DuesPending, LastDuesPayment: &paid, NextDueDate: &next}
	if next.After(now) {
		proj.Status = DuesPaid
	}
	return proj
}

// Matches reports whether the identity already carries this projection.
func (p DuesProjection) Matches(id *Identity) bool {
	if id == nil {
		return false
	}
	status := id.DuesStatus
	if status == "" {
		status = DuesPending
	}
	return status == p.Status &&
		sameInstant(id.LastDuesPayment, p.LastDuesPayment) &&
		sameInstant(id.NextDueDate, p.NextDueDate)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}
