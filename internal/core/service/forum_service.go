package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
	"github.com/loga-alumni/portal/internal/pkg/sanitize"
)

var postsQuery = ports.Query{OrderBy: ports.Order{Field: "createdAt", Desc: true}}

type commentInput struct {
	Content string `validate:"notblank"`
}

// ForumService keeps a live mirror of the forum and runs its commands.
//
// Comments live inside their post, so adding or removing one rewrites the
// whole comments array from the mirror. Two writers racing on the same post
// can lose one of the changes.
type ForumService struct {
	coll  ports.Collection[domain.ForumPost]
	posts *live.Binding[domain.ForumPost]
	now   func() time.Time
	log   zerolog.Logger
}

func NewForumService(coll ports.Collection[domain.ForumPost], log zerolog.Logger) *ForumService {
	return &ForumService{
		coll:  coll,
		posts: live.New(coll, postsQuery, live.WithLogger(log)),
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

func (s *ForumService) Start(ctx context.Context) error { return s.posts.Start(ctx) }
func (s *ForumService) Close()                          { s.posts.Close() }

func (s *ForumService) List(category string) ports.View[domain.ForumPost] {
	v := s.posts.View()
	v.Items = views.FilterByTag(v.Items, category, func(p domain.ForumPost) domain.ForumCategory { return p.Category })
	return v
}

func (s *ForumService) Watch(ctx context.Context) (<-chan ports.View[domain.ForumPost], error) {
	return live.Watch(ctx, s.coll, postsQuery, live.WithLogger(s.log))
}

func (s *ForumService) Create(ctx context.Context, actor domain.Actor, in ports.PostInput) (string, error) {
	if err := requireSignedIn(actor); err != nil {
		return "", err
	}
	if err := validateInput(in); err != nil {
		return "", err
	}

	category := domain.ForumCategory(in.Category)
	if category == "" {
		category = domain.CategoryGeneral
	}
	post := domain.ForumPost{
		Title:      sanitize.Text(in.Title),
		Content:    sanitize.Text(in.Content),
		Category:   category,
		Author:     actor.Account.ID,
		AuthorName: actor.Name,
		Comments:   []domain.Comment{},
	}
	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return "", writeError(s.coll.Name(), "create", "Failed to create post", err)
	}

	s.log.Info().Str("post_id", id).Str("by", actor.Account.ID).Msg("post created")
	return id, nil
}

// Delete removes a post with its comments. Deleting one that is already
// gone succeeds.
func (s *ForumService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}

	existing, err := s.coll.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !actor.CanModify(existing.OwnerID()) {
		return domain.ErrForbidden
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return writeError(s.coll.Name(), "delete", "Failed to delete post", err)
	}

	s.log.Info().Str("post_id", id).Str("by", actor.Account.ID).Msg("post deleted")
	return nil
}

// AddComment appends a comment to the post as currently mirrored and writes
// the resulting array back.
func (s *ForumService) AddComment(ctx context.Context, actor domain.Actor, postID, content string) (string, error) {
	// 1. Authorisation and validation.
	if err := requireSignedIn(actor); err != nil {
		return "", err
	}
	in := commentInput{Content: content}
	if err := validateInput(in); err != nil {
		return "", err
	}

	// 2. Read the post the member is looking at.
	post, err := s.current(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("add comment: %w", err)
	}

	// 3. Rewrite the comments array.
	c := domain.Comment{
		ID:         uuid.NewString(),
		Content:    sanitize.Text(in.Content),
		Author:     actor.Account.ID,
		AuthorName: actor.Name,
		CreatedAt:  s.now(),
	}
	comments := append(slices.Clone(post.Comments), c)
	if err := s.posts.Update(ctx, postID, ports.Fields{"comments": comments}); err != nil {
		return "", writeError(s.coll.Name(), "update", "Failed to add comment", err)
	}

	s.log.Debug().Str("post_id", postID).Str("comment_id", c.ID).Msg("comment added")
	return c.ID, nil
}

// DeleteComment removes one comment. The comment author and admins may do
// so; a comment that is already gone is not an error.
func (s *ForumService) DeleteComment(ctx context.Context, actor domain.Actor, postID, commentID string) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}

	post, err := s.current(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	c, ok := post.FindComment(commentID)
	if !ok {
		return nil
	}
	if !actor.CanModify(c.Author) {
		return domain.ErrForbidden
	}

	comments := slices.DeleteFunc(slices.Clone(post.Comments), func(c domain.Comment) bool {
		return c.ID == commentID
	})
	if err := s.posts.Update(ctx, postID, ports.Fields{"comments": comments}); err != nil {
		return writeError(s.coll.Name(), "update", "Failed to delete comment", err)
	}
	return nil
}

// current prefers the mirrored copy of a post and falls back to the store
// when the mirror has not seen it yet.
func (s *ForumService) current(ctx context.Context, id string) (domain.ForumPost, error) {
	if p, ok := s.posts.Find(id); ok {
		return p, nil
	}
	return s.coll.Get(ctx, id)
}

// Posts returns the mirrored posts, newest first.
func (s *ForumService) Posts() []domain.ForumPost { return s.posts.Items() }
