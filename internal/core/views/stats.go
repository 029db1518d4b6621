package views

import (
	"time"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// Stats are the admin dashboard counters.
type Stats struct {
	Members     int `json:"members"`
	Admins      int `json:"admins"`
	PaidMembers int `json:"paid_members"`
	Events      int `json:"events"`
	Jobs        int `json:"jobs"`
	Posts       int `json:"posts"`
	Comments    int `json:"comments"`
}

func BuildStats(users []domain.Identity, events []domain.Event, jobs []domain.JobPosting, posts []domain.ForumPost, now time.Time) Stats {
	s := Stats{
		Members: len(users),
		Events:  len(events),
		Jobs:    len(jobs),
		Posts:   len(posts),
	}
	for _, u := range users {
		if u.IsAdmin {
			s.Admins++
		}
		if u.DuesStatus == domain.DuesPaid && u.NextDueDate != nil && u.NextDueDate.After(now) {
			s.PaidMembers++
		}
	}
	for _, p := range posts {
		s.Comments += len(p.Comments)
	}
	return s
}
