package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
	"github.com/jupiterclapton/complexapp/internal/core/ports"
)

type service struct {
	repo      ports.PostRepository
	follows   ports.FollowGraph
	counts    ports.CountCache
	publisher ports.EventPublisher
	sanitizer ports.Sanitizer
	avatars   ports.AvatarResolver
	now       func() time.Time
}

func NewPostService(
	repo ports.PostRepository,
	follows ports.FollowGraph,
	counts ports.CountCache,
	pub ports.EventPublisher,
	sanitizer ports.Sanitizer,
	avatars ports.AvatarResolver,
) ports.PostService {
	return &service{
		repo:      repo,
		follows:   follows,
		counts:    counts,
		publisher: pub,
		sanitizer: sanitizer,
		avatars:   avatars,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// --- COMMANDS ---

func (s *service) Create(ctx context.Context, in domain.Submission, userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}

	draft := s.cleanUp(in, userID)
	errs := draft.Validate()
	if len(errs) > 0 {
		return "", errs
	}

	id, err := s.repo.Insert(ctx, draft)
	if err != nil {
		slog.Error("Failed to insert post", "author_id", userID, "error", err)
		return "", append(errs, domain.MsgTryAgainLater)
	}

	s.invalidateCount(ctx, userID)

	// Best effort: the post is saved whatever the broker says.
	if err := s.publisher.PublishPostCreated(ctx, id, draft); err != nil {
		slog.Warn("Failed to publish post.created", "post_id", id, "error", err)
	}

	return id, nil
}

// Update applies the submission only when userID owns the post.
func (s *service) Update(ctx context.Context, postID, userID string, in domain.Submission) error {
	post, err := s.FindSingleByID(ctx, postID, userID)
	if err != nil {
		slog.Debug("Update lookup failed", "post_id", postID, "error", err)
		return domain.ErrPostNotFound
	}
	if !post.IsVisitorOwner {
		slog.Debug("Update refused: not owner", "post_id", postID, "user_id", userID)
		return domain.ErrPostNotFound
	}

	return s.apply(ctx, postID, userID, in)
}

// apply re-runs cleanUp and validate, then touches title and body only.
// createDate and author keep their stored values.
func (s *service) apply(ctx context.Context, postID, userID string, in domain.Submission) error {
	draft := s.cleanUp(in, userID)
	if errs := draft.Validate(); len(errs) > 0 {
		return errs
	}

	if err := s.repo.UpdateContent(ctx, postID, draft.Title, draft.Body); err != nil {
		return fmt.Errorf("update post %s: %w", postID, err)
	}

	if err := s.publisher.PublishPostUpdated(ctx, postID, userID); err != nil {
		slog.Warn("Failed to publish post.updated", "post_id", postID, "error", err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.FindSingleByID(ctx, postID, userID)
	if err != nil {
		slog.Debug("Delete lookup failed", "post_id", postID, "error", err)
		return domain.ErrPostNotFound
	}
	if !post.IsVisitorOwner {
		slog.Debug("Delete refused: not owner", "post_id", postID, "user_id", userID)
		return domain.ErrPostNotFound
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}

	s.invalidateCount(ctx, userID)

	if err := s.publisher.PublishPostDeleted(ctx, postID, userID); err != nil {
		slog.Warn("Failed to publish post.deleted", "post_id", postID, "error", err)
	}
	return nil
}

// --- QUERIES ---

func (s *service) FindSingleByID(ctx context.Context, postID, visitorID string) (*domain.PostView, error) {
	rec, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return rec.View(visitorID, s.avatars.Avatar(rec.Author)), nil
}

func (s *service) FindByAuthorID(ctx context.Context, authorID, visitorID string, page domain.Page) ([]*domain.PostView, error) {
	records, err := s.repo.ListByAuthor(ctx, authorID, page)
	if err != nil {
		return nil, err
	}
	return s.compose(records, visitorID), nil
}

// Search rejects anything but a string before touching the database.
func (s *service) Search(ctx context.Context, term any, visitorID string, page domain.Page) ([]*domain.PostView, error) {
	text, ok := term.(string)
	if !ok {
		return nil, domain.ErrInvalidSearchTerm
	}

	records, err := s.repo.Search(ctx, text, page)
	if err != nil {
		return nil, err
	}
	return s.compose(records, visitorID), nil
}

func (s *service) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	key := domain.CanonicalID(authorID)

	count, gen, ok, cacheErr := s.counts.Get(ctx, key)
	if cacheErr != nil {
		slog.Warn("Count cache read failed", "author_id", authorID, "error", cacheErr)
	}
	if ok {
		return count, nil
	}

	count, err := s.repo.CountByAuthor(ctx, authorID)
	if err != nil {
		return 0, err
	}

	// Without a generation the write could land on a live key.
	if cacheErr != nil {
		return count, nil
	}
	if err := s.counts.Set(ctx, key, gen, count); err != nil {
		slog.Warn("Count cache write failed", "author_id", authorID, "error", err)
	}
	return count, nil
}

// GetFeed lists posts by everyone userID follows, newest first.
func (s *service) GetFeed(ctx context.Context, userID string, page domain.Page) ([]*domain.PostView, error) {
	followed, err := s.follows.FollowedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load follows: %w", err)
	}

	// Nobody followed, nothing to ask the database.
	if len(followed) == 0 {
		return []*domain.PostView{}, nil
	}

	records, err := s.repo.ListByAuthors(ctx, followed, page)
	if err != nil {
		return nil, err
	}
	return s.compose(records, userID), nil
}

// --- HELPERS ---

// cleanUp keeps title and body only. Non-text values become "".
func (s *service) cleanUp(in domain.Submission, userID string) domain.Draft {
	return domain.Draft{
		Title:      s.clean(textField(in, "title")),
		Body:       s.clean(textField(in, "body")),
		CreateDate: s.now(),
		AuthorID:   userID,
	}
}

func (s *service) clean(v string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(strings.TrimSpace(v)))
}

func textField(in domain.Submission, key string) string {
	v, _ := in[key].(string)
	return v
}

func (s *service) compose(records []*domain.PostRecord, visitorID string) []*domain.PostView {
	views := make([]*domain.PostView, 0, len(records))
	for _, rec := range records {
		views = append(views, rec.View(visitorID, s.avatars.Avatar(rec.Author)))
	}
	return views
}

func (s *service) invalidateCount(ctx context.Context, authorID string) {
	if err := s.counts.Invalidate(ctx, domain.CanonicalID(authorID)); err != nil {
		slog.Warn("Count cache invalidation failed", "author_id", authorID, "error", err)
	}
}
