package views

import (
	"math"
	"sort"
	"time"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// DaysUntilRenewal is the number of whole days from now to nextDue, rounded
// down. Negative values mean the dues are overdue by that many days.
func DaysUntilRenewal(nextDue, now time.Time) int {
	return int(math.Floor(nextDue.Sub(now).Hours() / 24))
}

// DuesOverview joins a member's payment history with their cached dues state.
type DuesOverview struct {
	Status           domain.DuesStatus    `json:"status"`
	LastPayment      *time.Time           `json:"last_payment,omitempty"`
	NextDueDate      *time.Time           `json:"next_due_date,omitempty"`
	DaysUntilRenewal *int                 `json:"days_until_renewal,omitempty"`
	Overdue          bool                 `json:"overdue"`
	Payments         []domain.DuesPayment `json:"payments"`
}

// BuildDuesOverview prefers the payment history and falls back to the
// profile projection when there is no history yet.
func BuildDuesOverview(profile *domain.Identity, payments []domain.DuesPayment, now time.Time) DuesOverview {
	history := append([]domain.DuesPayment(nil), payments...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].PaymentDate.After(history[j].PaymentDate)
	})

	proj := domain.ProjectDues(history, now)
	if len(history) == 0 && profile != nil {
		proj = domain.DuesProjection{
			Status:          profile.DuesStatus,
			LastDuesPayment: profile.LastDuesPayment,
			NextDueDate:     profile.NextDueDate,
		}
		if proj.Status == "" {
			proj.Status = domain.DuesPending
		}
	}

	ov := DuesOverview{
		Status:      proj.Status,
		LastPayment: proj.LastDuesPayment,
		NextDueDate: proj.NextDueDate,
		Payments:    history,
	}
	if proj.NextDueDate != nil {
		days := DaysUntilRenewal(*proj.NextDueDate, now)
		ov.DaysUntilRenewal = &days
		ov.Overdue = days < 0
	}
	return ov
}
