package ports

import (
	"context"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/views"
)

type EventInput struct {
	Title            string `validate:"notblank,max=200"`
	Description      string `validate:"notblank"`
	Date             string `validate:"notblank"`
	Time             string
	Venue            string `validate:"notblank"`
	RegistrationLink string `validate:"omitempty,url"`
}

type JobInput struct {
	Title       string `validate:"notblank,max=200"`
	Company     string `validate:"notblank"`
	Description string `validate:"notblank"`
	// Requirements is free text, one requirement per line.
	Requirements    string
	Location        string `validate:"notblank"`
	Type            string `validate:"omitempty,oneof=full-time part-time contract internship remote"`
	Salary          string
	ContactEmail    string `validate:"omitempty,email"`
	ApplicationLink string `validate:"omitempty,url"`
	Deadline        string
}

type PostInput struct {
	Title    string `validate:"notblank,max=200"`
	Content  string `validate:"notblank"`
	Category string `validate:"omitempty,oneof=general career networking memories"`
}

type ProfileInput struct {
	Name        string `validate:"notblank"`
	PhoneNumber string
	Occupation  string
	Institution string
}

type DonationInput struct {
	Name        string
	Email       string `validate:"required,email"`
	AmountMinor int64  `validate:"gt=0"`
}

// EventService manages the events board.
type EventService interface {
	List() View[domain.Event]
	Watch(ctx context.Context) (<-chan View[domain.Event], error)
	Create(ctx context.Context, actor domain.Actor, in EventInput) (string, error)
	Update(ctx context.Context, actor domain.Actor, id string, in EventInput) error
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

// JobService manages the job board. List filters by job type, "all" or ""
// keeps everything.
type JobService interface {
	List(jobType string) View[domain.JobPosting]
	Watch(ctx context.Context) (<-chan View[domain.JobPosting], error)
	Create(ctx context.Context, actor domain.Actor, in JobInput) (string, error)
	Update(ctx context.Context, actor domain.Actor, id string, in JobInput) error
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type ForumService interface {
	List(category string) View[domain.ForumPost]
	Watch(ctx context.Context) (<-chan View[domain.ForumPost], error)
	Create(ctx context.Context, actor domain.Actor, in PostInput) (string, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	AddComment(ctx context.Context, actor domain.Actor, postID, content string) (string, error)
	DeleteComment(ctx context.Context, actor domain.Actor, postID, commentID string) error
}

type DuesService interface {
	Overview(ctx context.Context, actor domain.Actor) (*views.DuesOverview, error)
	// Checkout returns domain.ErrDuesAlreadyPaid while the current period is covered.
	Checkout(ctx context.Context, actor domain.Actor) (*WidgetConfig, error)
	Confirm(ctx context.Context, actor domain.Actor, reference string) (*domain.DuesPayment, error)
	CloseCheckout(ctx context.Context, actor domain.Actor, reference string)
	Watch(ctx context.Context, actor domain.Actor) (<-chan View[domain.DuesPayment], error)
}

type DonationService interface {
	Presets() []int64
	Checkout(ctx context.Context, in DonationInput) (*WidgetConfig, error)
	Confirm(ctx context.Context, in DonationInput, reference string) (*domain.Donation, error)
}

type ProfileService interface {
	// LoadProfile returns (nil, nil) when the account has no profile.
	LoadProfile(ctx context.Context, accountID string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, in ProfileInput) error
}

// AdminService backs the admin dashboard. Every method returns
// domain.ErrForbidden for non-admin actors.
type AdminService interface {
	Stats(ctx context.Context, actor domain.Actor) (*views.Stats, error)
	ListMembers(actor domain.Actor, query string, page int) (*views.Page[domain.Identity], error)
	ToggleAdmin(ctx context.Context, actor domain.Actor, id string) (bool, error)
	DeleteMember(ctx context.Context, actor domain.Actor, id string) error
	Donations(actor domain.Actor) (View[domain.Donation], error)
}
