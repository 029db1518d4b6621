package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSplitRequirements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"blank lines dropped", "Go\n\n  \nSQL", []string{"Go", "SQL"}},
		{"trimmed", "  5 years experience  \r\n\tBSc ", []string{"5 years experience", "BSc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitRequirements(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveRole(t *testing.T) {
	member := &Account{ID: "m1", Email: "kofi@loga.com"}
	reserved := &Account{ID: "a1", Email: "Admin@LOGA.com"}

	tests := []struct {
		name    string
		acct    *Account
		profile *Identity
		want    bool
	}{
		{"signed out", nil, &Identity{IsAdmin: true}, false},
		{"member without profile", member, nil, false},
		{"member flagged admin", member, &Identity{IsAdmin: true}, true},
		{"reserved email without profile", reserved, nil, true},
		{"reserved email overrides the flag", reserved, &Identity{IsAdmin: false}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveRole(tt.acct, tt.profile, "admin@loga.com"); got.IsAdmin != tt.want {
				t.Fatalf("IsAdmin = %v, want %v", got.IsAdmin, tt.want)
			}
		})
	}
}

func TestActor_CanModify(t *testing.T) {
	owner := Actor{Account: Account{ID: "m1"}}
	admin := Actor{Account: Account{ID: "a1"}, IsAdmin: true}

	if !owner.CanModify("m1") {
		t.Fatalf("owner must modify own document")
	}
	if owner.CanModify("m2") {
		t.Fatalf("member must not modify others' documents")
	}
	if !admin.CanModify("m2") {
		t.Fatalf("admin must modify any document")
	}
	if (Actor{}).CanModify("") {
		t.Fatalf("anonymous actor must not match an empty owner")
	}
}

func TestProjectDues(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	paid := func(at time.Time) DuesPayment {
		return DuesPayment{Status: PaymentPaid, PaymentDate: at, NextDueDate: at.Add(30 * day)}
	}

	if got := ProjectDues(nil, now); got.Status != DuesPending || got.NextDueDate != nil {
		t.Fatalf("no payments: %+v", got)
	}

	recent := paid(now.Add(-10 * day))
	old := paid(now.Add(-40 * day))
	pending := DuesPayment{Status: PaymentPending, PaymentDate: now, NextDueDate: now.Add(30 * day)}

	got := ProjectDues([]DuesPayment{old, pending, recent}, now)
	if got.Status != DuesPaid || !got.NextDueDate.Equal(recent.NextDueDate) {
		t.Fatalf("expected latest paid payment to win, got %+v", got)
	}

	got = ProjectDues([]DuesPayment{old}, now)
	if got.Status != DuesPending || got.LastDuesPayment == nil {
		t.Fatalf("expected lapsed period to be pending with history, got %+v", got)
	}
}

func TestDuesProjection_Matches(t *testing.T) {
	next := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	last := next.Add(-30 * 24 * time.Hour)
	proj := DuesProjection{Status: DuesPaid, LastDuesPayment: &last, NextDueDate: &next}

	if proj.Matches(nil) {
		t.Fatalf("nil identity never matches")
	}
	if !proj.Matches(&Identity{DuesStatus: DuesPaid, LastDuesPayment: &last, NextDueDate: &next}) {
		t.Fatalf("expected match")
	}
	shifted := next.Add(time.Hour)
	if proj.Matches(&Identity{DuesStatus: DuesPaid, LastDuesPayment: &last, NextDueDate: &shifted}) {
		t.Fatalf("different due date must not match")
	}
	if !(DuesProjection{Status: DuesPending}).Matches(&Identity{}) {
		t.Fatalf("empty status reads as pending")
	}
}

func TestNewPaymentReference(t *testing.T) {
	at := time.UnixMilli(1772366400000)
	ref := NewPaymentReference(DuesReferencePrefix, at)
	if ref != "dues_1772366400000" || !IsDuesReference(ref) {
		t.Fatalf("unexpected reference %q", ref)
	}
	if IsDuesReference(NewPaymentReference(DonationReferencePrefix, at)) {
		t.Fatalf("donation reference must not read as dues")
	}
}

func TestNewAuthError(t *testing.T) {
	known := NewAuthError(AuthCodePasswordMismatch, nil)
	if known.Error() != "Passwords don't match" {
		t.Fatalf("unexpected message %q", known.Error())
	}

	cause := errors.New("quota exceeded")
	unknown := NewAuthError("auth/too-many-requests", cause)
	if unknown.Error() != "quota exceeded" || !errors.Is(unknown, cause) {
		t.Fatalf("unknown code should keep the raw message, got %q", unknown.Error())
	}

	if bare := NewAuthError("auth/other", nil); bare.Error() != "auth/other" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}

func TestValidationError(t *testing.T) {
	if got := (&ValidationError{Field: "title", Message: "is required"}).Error(); got != "title: is required" {
		t.Fatalf("unexpected %q", got)
	}
	if got := (&ValidationError{Message: "nothing to update"}).Error(); got != "nothing to update" {
		t.Fatalf("unexpected %q", got)
	}
}
