package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
)

// steppingClock returns base, base+1s, base+2s, ...
func steppingClock(base time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func newJobs(t *testing.T) (*Collection[domain.JobPosting], *changefeed.LocalNotifier) {
	t.Helper()
	n := changefeed.NewLocalNotifier()
	c := NewCollection[domain.JobPosting]("jobs", n, Options{
		StampField: "postedAt",
		Now:        steppingClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)),
		Log:        zerolog.Nop(),
	})
	return c, n
}

func TestCollection_CreateAssignsIDAndStamp(t *testing.T) {
	c, _ := newJobs(t)
	ctx := context.Background()

	id, err := c.Create(ctx, domain.JobPosting{Title: "Engineer", Type: domain.JobFullTime, Requirements: []string{"Go"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Engineer", got.Title)
	assert.Equal(t, []string{"Go"}, got.Requirements)
	assert.True(t, got.PostedAt.Equal(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)), "postedAt = %v", got.PostedAt)
}

func TestCollection_ListOrdersByFieldDescending(t *testing.T) {
	c, _ := newJobs(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := c.Create(ctx, domain.JobPosting{Title: title})
		require.NoError(t, err)
	}

	got, err := c.List(ctx, ports.Query{OrderBy: ports.Order{Field: "postedAt", Desc: true}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "first", got[2].Title)
}

func TestCollection_ListFiltersByEquality(t *testing.T) {
	n := changefeed.NewLocalNotifier()
	c := NewCollection[domain.DuesPayment]("dues", n, Options{})
	ctx := context.Background()

	_, _ = c.Create(ctx, domain.DuesPayment{UserID: "u1", Reference: "dues_1"})
	_, _ = c.Create(ctx, domain.DuesPayment{UserID: "u2", Reference: "dues_2"})
	_, _ = c.Create(ctx, domain.DuesPayment{UserID: "u1", Reference: "dues_3"})

	got, err := c.List(ctx, ports.Query{Where: ports.Fields{"userId": "u1"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dues_1", got[0].Reference)
	assert.Equal(t, "dues_3", got[1].Reference)
}

func TestCollection_UniqueFieldRejectsSecondDocument(t *testing.T) {
	n := changefeed.NewLocalNotifier()
	c := NewCollection[domain.DuesPayment]("dues", n, Options{Unique: []string{"reference"}})
	ctx := context.Background()

	id, err := c.Create(ctx, domain.DuesPayment{UserID: "u1", Reference: "dues_1"})
	require.NoError(t, err)

	_, err = c.Create(ctx, domain.DuesPayment{UserID: "u2", Reference: "dues_1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	err = c.Set(ctx, "other", domain.DuesPayment{UserID: "u2", Reference: "dues_1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Rewriting the holder itself is fine, and so are distinct values.
	require.NoError(t, c.Set(ctx, id, domain.DuesPayment{UserID: "u1", Reference: "dues_1", Amount: 5}))
	_, err = c.Create(ctx, domain.DuesPayment{UserID: "u2", Reference: "dues_2"})
	require.NoError(t, err)

	all, err := c.List(ctx, ports.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCollection_UpdateMergesAndRejectsMissing(t *testing.T) {
	c, _ := newJobs(t)
	ctx := context.Background()
	id, _ := c.Create(ctx, domain.JobPosting{Title: "Old", Company: "Acme"})

	require.NoError(t, c.Update(ctx, id, ports.Fields{"title": "New", "requirements": []string{"a", "b"}}))
	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, []string{"a", "b"}, got.Requirements)

	err = c.Update(ctx, "missing", ports.Fields{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_DeleteIsIdempotent(t *testing.T) {
	c, _ := newJobs(t)
	ctx := context.Background()
	id, _ := c.Create(ctx, domain.JobPosting{Title: "x"})

	require.NoError(t, c.Delete(ctx, id))
	require.NoError(t, c.Delete(ctx, id))
	_, err := c.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_FailWrites(t *testing.T) {
	c, _ := newJobs(t)
	boom := errors.New("unavailable")
	c.FailWrites(boom)

	_, err := c.Create(context.Background(), domain.JobPosting{Title: "x"})
	assert.ErrorIs(t, err, boom)

	c.FailWrites(nil)
	_, err = c.Create(context.Background(), domain.JobPosting{Title: "x"})
	assert.NoError(t, err)
}

func TestCollection_SubscribeDeliversSnapshotAfterWrite(t *testing.T) {
	c, n := newJobs(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.Subscribe(ctx, ports.Query{OrderBy: ports.Order{Field: "postedAt", Desc: true}})
	require.NoError(t, err)
	defer stream.Close()

	select {
	case snap := <-stream.Snapshots():
		assert.Empty(t, snap)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	_, err = c.Create(ctx, domain.JobPosting{Title: "posted"})
	require.NoError(t, err)

	select {
	case snap := <-stream.Snapshots():
		require.Len(t, snap, 1)
		assert.Equal(t, "posted", snap[0].Title)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after write")
	}

	stream.Close()
	assert.Eventually(t, func() bool { return n.Listeners("jobs") == 0 }, time.Second, 10*time.Millisecond)
}

func TestAccountRepository(t *testing.T) {
	r := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &domain.Credentials{ID: "a1", Email: "Ama@Loga.com", PasswordHash: "h"}))
	assert.ErrorIs(t, r.Create(ctx, &domain.Credentials{ID: "a2", Email: "ama@loga.com"}), domain.ErrDuplicate)

	got, err := r.FindByEmail(ctx, "AMA@loga.com")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	require.NoError(t, r.UpdatePassword(ctx, "a1", "h2", time.Now()))
	got, _ = r.FindByID(ctx, "a1")
	assert.Equal(t, "h2", got.PasswordHash)

	require.NoError(t, r.Delete(ctx, "a1"))
	_, err = r.FindByEmail(ctx, "ama@loga.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
