package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
	"github.com/loga-alumni/portal/internal/infrastructure/memstore"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	member = domain.Actor{Account: domain.Account{ID: "m1", Email: "kofi@loga.com"}, Name: "Kofi"}
	other  = domain.Actor{Account: domain.Account{ID: "m2", Email: "ama@loga.com"}, Name: "Ama"}
	admin  = domain.Actor{Account: domain.Account{ID: "a1", Email: "admin@loga.com"}, IsAdmin: true, Name: "Admin"}
)

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newEvents(t *testing.T, adminOnly bool) (*EventService, *memstore.Collection[domain.Event]) {
	t.Helper()
	coll := memstore.NewCollection[domain.Event]("events", changefeed.NewLocalNotifier(), memstore.Options{StampField: "createdAt"})
	svc := NewEventService(coll, adminOnly, zerolog.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, coll
}

func newForum(t *testing.T, coll *memstore.Collection[domain.ForumPost]) *ForumService {
	t.Helper()
	svc := NewForumService(coll, zerolog.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func validEvent() ports.EventInput {
	return ports.EventInput{
		Title:       "Homecoming",
		Description: "Annual reunion",
		Date:        "2026-12-12",
		Venue:       "Main hall",
	}
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func TestEventService_CreateShowsUpInMirror(t *testing.T) {
	svc, _ := newEvents(t, false)

	id, err := svc.Create(context.Background(), member, validEvent())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eventually(t, "event in mirror", func() bool { return len(svc.List().Items) == 1 })

	got := svc.List().Items[0]
	if got.ID != id || got.CreatedBy != "m1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected server timestamp")
	}
}

func TestEventService_RejectsInvalidInputBeforeWriting(t *testing.T) {
	svc, _ := newEvents(t, false)

	in := validEvent()
	in.Title = "   "
	_, err := svc.Create(context.Background(), member, in)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "title" {
		t.Fatalf("unexpected field: %s", ve.Field)
	}
}

func TestEventService_SanitizesMarkup(t *testing.T) {
	svc, coll := newEvents(t, false)

	in := validEvent()
	in.Description = `Bring friends<script>alert(1)</script>`
	id, err := svc.Create(context.Background(), member, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ev, _ := coll.Get(context.Background(), id)
	if ev.Description != "Bring friends" {
		t.Fatalf("markup not stripped: %q", ev.Description)
	}
}

func TestEventService_AdminOnly(t *testing.T) {
	svc, _ := newEvents(t, true)

	if _, err := svc.Create(context.Background(), member, validEvent()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), admin, validEvent()); err != nil {
		t.Fatalf("admin create: %v", err)
	}
}

func TestEventService_Ownership(t *testing.T) {
	svc, coll := newEvents(t, false)
	ctx := context.Background()

	id, _ := svc.Create(ctx, member, validEvent())

	in := validEvent()
	in.Venue = "Courtyard"
	if err := svc.Update(ctx, other, id, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.Update(ctx, member, id, in); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if err := svc.Delete(ctx, other, id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := svc.Delete(ctx, admin, id); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	// Second delete of the same id is not an error.
	if err := svc.Delete(ctx, admin, id); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if _, err := coll.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected event gone, got %v", err)
	}
}

func TestEventService_WriteFailureCarriesNotice(t *testing.T) {
	svc, coll := newEvents(t, false)
	coll.FailWrites(errors.New("quota exceeded"))

	_, err := svc.Create(context.Background(), member, validEvent())

	var we *domain.StoreWriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected StoreWriteError, got %v", err)
	}
	if we.Notice != "Failed to create event" {
		t.Fatalf("unexpected notice: %q", we.Notice)
	}
}

func TestEventService_SignedOutIsRejected(t *testing.T) {
	svc, _ := newEvents(t, false)
	if _, err := svc.Create(context.Background(), domain.Actor{}, validEvent()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Jobs
// ---------------------------------------------------------------------------

func TestJobService_CreateSplitsRequirementsAndFilters(t *testing.T) {
	coll := memstore.NewCollection[domain.JobPosting]("jobs", changefeed.NewLocalNotifier(), memstore.Options{StampField: "postedAt"})
	svc := NewJobService(coll, zerolog.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Close)
	ctx := context.Background()

	_, err := svc.Create(ctx, member, ports.JobInput{
		Title:        "Backend engineer",
		Company:      "Acme",
		Description:  "Build APIs",
		Requirements: "Go\n\n  MongoDB  \n",
		Location:     "Accra",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Create(ctx, other, ports.JobInput{
		Title: "Intern", Company: "Acme", Description: "Learn", Location: "Kumasi", Type: "internship",
	})
	if err != nil {
		t.Fatalf("create intern: %v", err)
	}

	eventually(t, "two jobs", func() bool { return len(svc.List("all").Items) == 2 })

	full := svc.List("full-time").Items
	if len(full) != 1 || full[0].Type != domain.JobFullTime {
		t.Fatalf("unexpected full-time list: %+v", full)
	}
	if got := full[0].Requirements; len(got) != 2 || got[0] != "Go" || got[1] != "MongoDB" {
		t.Fatalf("unexpected requirements: %v", got)
	}
	if len(svc.List("internship").Items) != 1 {
		t.Fatalf("expected one internship")
	}
}

func TestJobService_RejectsUnknownType(t *testing.T) {
	coll := memstore.NewCollection[domain.JobPosting]("jobs", changefeed.NewLocalNotifier(), memstore.Options{})
	svc := NewJobService(coll, zerolog.Nop())

	_, err := svc.Create(context.Background(), member, ports.JobInput{
		Title: "X", Company: "Y", Description: "Z", Location: "Accra", Type: "freelance",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "type" {
		t.Fatalf("expected type ValidationError, got %v", err)
	}
}

func TestJobService_UpdateMissingIsNotFound(t *testing.T) {
	coll := memstore.NewCollection[domain.JobPosting]("jobs", changefeed.NewLocalNotifier(), memstore.Options{})
	svc := NewJobService(coll, zerolog.Nop())

	err := svc.Update(context.Background(), admin, "job_42", ports.JobInput{
		Title: "X", Company: "Y", Description: "Z", Location: "Accra",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Forum
// ---------------------------------------------------------------------------

func TestForumService_CommentsRoundTrip(t *testing.T) {
	notifier := changefeed.NewLocalNotifier()
	coll := memstore.NewCollection[domain.ForumPost]("forum_posts", notifier, memstore.Options{StampField: "createdAt"})
	svc := newForum(t, coll)
	ctx := context.Background()

	postID, err := svc.Create(ctx, member, ports.PostInput{Title: "Class of 2010", Content: "Who is coming?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eventually(t, "post mirrored", func() bool { return len(svc.List("").Items) == 1 })

	commentID, err := svc.AddComment(ctx, other, postID, "Count me in")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	eventually(t, "comment mirrored", func() bool {
		items := svc.List("general").Items
		return len(items) == 1 && len(items[0].Comments) == 1
	})

	c := svc.List("").Items[0].Comments[0]
	if c.ID != commentID || c.Author != "m2" || c.AuthorName != "Ama" {
		t.Fatalf("unexpected comment: %+v", c)
	}

	// The post author does not own the comment.
	if err := svc.DeleteComment(ctx, member, postID, commentID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteComment(ctx, other, postID, commentID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	eventually(t, "comment removed", func() bool { return len(svc.List("").Items[0].Comments) == 0 })

	if err := svc.DeleteComment(ctx, other, postID, commentID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestForumService_BlankCommentRejected(t *testing.T) {
	notifier := changefeed.NewLocalNotifier()
	coll := memstore.NewCollection[domain.ForumPost]("forum_posts", notifier, memstore.Options{})
	svc := NewForumService(coll, zerolog.Nop())

	_, err := svc.AddComment(context.Background(), member, "p1", " \n ")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// Two writers commenting from the same stale view of a post: the second
// array write replaces the first, so one comment is lost.
func TestForumService_ConcurrentCommentsLoseUpdate(t *testing.T) {
	notifier := changefeed.NewLocalNotifier()
	coll := memstore.NewCollection[domain.ForumPost]("forum_posts", notifier, memstore.Options{StampField: "createdAt"})
	ctx := context.Background()

	a := newForum(t, coll)
	b := newForum(t, coll)

	postID, err := a.Create(ctx, member, ports.PostInput{Title: "Reunion", Content: "Ideas?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eventually(t, "post in both mirrors", func() bool {
		return len(a.Posts()) == 1 && len(b.Posts()) == 1
	})

	// Freeze both mirrors on the comment-less post.
	a.Close()
	b.Close()

	if _, err := a.AddComment(ctx, member, postID, "first"); err != nil {
		t.Fatalf("comment a: %v", err)
	}
	if _, err := b.AddComment(ctx, other, postID, "second"); err != nil {
		t.Fatalf("comment b: %v", err)
	}

	post, err := coll.Get(ctx, postID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(post.Comments) != 1 || post.Comments[0].Content != "second" {
		t.Fatalf("expected only the last write to survive, got %+v", post.Comments)
	}
}
