package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
	"github.com/loga-alumni/portal/internal/infrastructure/memstore"
)

type adminFixture struct {
	admin     *AdminService
	profiles  *ProfileService
	accounts  *memstore.AccountRepository
	users     *memstore.Collection[domain.Identity]
	donations *DonationService
	forum     *ForumService
}

func newAdmin(t *testing.T) *adminFixture {
	t.Helper()
	notifier := changefeed.NewLocalNotifier()
	log := zerolog.Nop()

	users := memstore.NewCollection[domain.Identity]("users", notifier, memstore.Options{})
	f := &adminFixture{
		users:    users,
		accounts: memstore.NewAccountRepository(),
		profiles: NewProfileService(users, nil, log),
		forum:    NewForumService(memstore.NewCollection[domain.ForumPost]("forum_posts", notifier, memstore.Options{StampField: "createdAt"}), log),
		donations: NewDonationService(
			memstore.NewCollection[domain.Donation]("donations", notifier, memstore.Options{StampField: "createdAt"}),
			nil, nil, "GHS", "pk_test", log,
		),
	}
	events := NewEventService(memstore.NewCollection[domain.Event]("events", notifier, memstore.Options{StampField: "createdAt"}), false, log)
	jobs := NewJobService(memstore.NewCollection[domain.JobPosting]("jobs", notifier, memstore.Options{StampField: "postedAt"}), log)
	f.admin = NewAdminService(f.profiles, f.accounts, events, jobs, f.forum, f.donations, log)

	for _, s := range []interface {
		Start(context.Context) error
		Close()
	}{f.profiles, f.forum, f.donations, events, jobs} {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		t.Cleanup(s.Close)
	}
	return f
}

// seedMembers creates n members with ascending creation times.
func (f *adminFixture) seedMembers(t *testing.T, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("u%02d", i)
		err := f.profiles.CreateProfile(context.Background(), domain.Identity{
			ID:        id,
			Name:      fmt.Sprintf("Member %d", i),
			Email:     id + "@loga.com",
			YearGroup: "2010",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	eventually(t, "members mirrored", func() bool { return len(f.profiles.Members()) == n })
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	f := newAdmin(t)
	ctx := context.Background()

	if _, err := f.admin.Stats(ctx, member); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.admin.ListMembers(domain.Actor{}, "", 1); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.admin.ToggleAdmin(ctx, member, "u01"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdminService_ListMembersPaginates(t *testing.T) {
	f := newAdmin(t)
	f.seedMembers(t, 12)

	page, err := f.admin.ListMembers(admin, "", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalPages != 3 || page.Total != 12 || len(page.Items) != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}
	// Newest first.
	if page.Items[0].ID != "u12" {
		t.Fatalf("expected newest member first, got %s", page.Items[0].ID)
	}

	last, _ := f.admin.ListMembers(admin, "", 4)
	if last.Page != 3 || len(last.Items) != 2 {
		t.Fatalf("expected clamped last page with 2 items, got %+v", last)
	}

	found, _ := f.admin.ListMembers(admin, "member 7", 1)
	if found.Total != 1 || found.Items[0].ID != "u07" {
		t.Fatalf("unexpected search result: %+v", found)
	}
}

func TestAdminService_ToggleAdmin(t *testing.T) {
	f := newAdmin(t)
	f.seedMembers(t, 1)
	ctx := context.Background()

	got, err := f.admin.ToggleAdmin(ctx, admin, "u01")
	if err != nil || !got {
		t.Fatalf("expected promotion, got %v %v", got, err)
	}
	eventually(t, "flag mirrored", func() bool {
		p, _ := f.profiles.Get(ctx, "u01")
		return p.IsAdmin
	})

	got, err = f.admin.ToggleAdmin(ctx, admin, "u01")
	if err != nil || got {
		t.Fatalf("expected demotion, got %v %v", got, err)
	}

	if _, err := f.admin.ToggleAdmin(ctx, admin, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminService_DeleteMemberRemovesCredentials(t *testing.T) {
	f := newAdmin(t)
	f.seedMembers(t, 1)
	ctx := context.Background()
	_ = f.accounts.Create(ctx, &domain.Credentials{ID: "u01", Email: "u01@loga.com"})

	if err := f.admin.DeleteMember(ctx, admin, "u01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.users.Get(ctx, "u01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected profile gone, got %v", err)
	}
	if _, err := f.accounts.FindByID(ctx, "u01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected credentials gone, got %v", err)
	}

	var ve *domain.ValidationError
	if err := f.admin.DeleteMember(ctx, admin, admin.Account.ID); !errors.As(err, &ve) {
		t.Fatalf("expected self-delete to be refused, got %v", err)
	}
}

func TestAdminService_StatsAndDonations(t *testing.T) {
	f := newAdmin(t)
	f.seedMembers(t, 3)
	ctx := context.Background()

	postID, _ := f.forum.Create(ctx, member, ports.PostInput{Title: "Hi", Content: "Hello"})
	eventually(t, "post mirrored", func() bool { return len(f.forum.Posts()) == 1 })
	_, _ = f.forum.AddComment(ctx, other, postID, "Welcome")
	eventually(t, "comment mirrored", func() bool { return len(f.forum.Posts()[0].Comments) == 1 })

	if _, err := f.donations.Confirm(ctx, ports.DonationInput{Name: "Ama", Email: "ama@loga.com", AmountMinor: 5000}, "donate_1"); err != nil {
		t.Fatalf("donation: %v", err)
	}

	st, err := f.admin.Stats(ctx, admin)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Members != 3 || st.Posts != 1 || st.Comments != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	eventually(t, "donation mirrored", func() bool {
		v, _ := f.admin.Donations(admin)
		return len(v.Items) == 1
	})
	v, _ := f.admin.Donations(admin)
	if v.Items[0].Amount != 5000 || v.Items[0].Name != "Ama" {
		t.Fatalf("unexpected donation: %+v", v.Items[0])
	}
}

func TestProfileService_UpdateProfile(t *testing.T) {
	f := newAdmin(t)
	ctx := context.Background()
	_ = f.profiles.CreateProfile(ctx, domain.Identity{ID: member.Account.ID, Name: "Kofi", Email: member.Account.Email})

	err := f.profiles.UpdateProfile(ctx, member, ports.ProfileInput{Name: "Kofi M.", Occupation: "Engineer"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ := f.profiles.LoadProfile(ctx, member.Account.ID)
	if p.Name != "Kofi M." || p.Occupation != "Engineer" || p.UpdatedAt == nil {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.Email != member.Account.Email {
		t.Fatalf("email must not change")
	}

	if missing, err := f.profiles.LoadProfile(ctx, "nobody"); err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for a missing profile, got %v %v", missing, err)
	}
}

func TestAdminBootstrap_EnsureAdminIsIdempotent(t *testing.T) {
	f := newAdmin(t)
	ctx := context.Background()
	boot := NewAdminBootstrap(f.accounts, f.profiles, "admin@loga.com", "admin123", zerolog.Nop())

	first, err := boot.EnsureAdmin(ctx)
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	second, err := boot.EnsureAdmin(ctx)
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same admin account")
	}

	p, err := f.users.Get(ctx, first.ID)
	if err != nil || !p.IsAdmin {
		t.Fatalf("expected admin profile, got %+v %v", p, err)
	}

	// A demoted admin profile is restored.
	_ = f.users.Update(ctx, first.ID, ports.Fields{"isAdmin": false})
	eventually(t, "demotion mirrored", func() bool {
		p, _ := f.profiles.Get(ctx, first.ID)
		return !p.IsAdmin
	})
	if _, err := boot.EnsureAdmin(ctx); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	p, _ = f.users.Get(ctx, first.ID)
	if !p.IsAdmin {
		t.Fatalf("expected admin flag restored")
	}
}

func TestDonationService_Checkout(t *testing.T) {
	f := newAdmin(t)

	cfg, err := f.donations.Checkout(context.Background(), ports.DonationInput{Name: "Ama", Email: "ama@loga.com", AmountMinor: 10000})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if cfg.AmountMinor != 10000 || cfg.Currency != "GHS" || cfg.Metadata["kind"] != "donation" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Reference) <= len(domain.DonationReferencePrefix) || cfg.Reference[:7] != "donate_" {
		t.Fatalf("unexpected reference: %s", cfg.Reference)
	}

	var ve *domain.ValidationError
	if _, err := f.donations.Checkout(context.Background(), ports.DonationInput{Email: "ama@loga.com"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero amount, got %v", err)
	}
}
