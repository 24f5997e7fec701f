package ports

import (
	"context"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

// --- DRIVEN ---

// PostRepository reads through a single composed aggregation. Rows come back
// with their raw author id; the service reshapes them.
type PostRepository interface {
	Insert(ctx context.Context, draft domain.Draft) (string, error)
	// UpdateContent sets title and body only.
	UpdateContent(ctx context.Context, postID, title, body string) error
	Delete(ctx context.Context, postID string) error

	// FindByID returns domain.ErrPostNotFound for a malformed id without querying.
	FindByID(ctx context.Context, postID string) (*domain.PostRecord, error)
	ListByAuthor(ctx context.Context, authorID string, page domain.Page) ([]*domain.PostRecord, error)
	ListByAuthors(ctx context.Context, authorIDs []string, page domain.Page) ([]*domain.PostRecord, error)
	Search(ctx context.Context, term string, page domain.Page) ([]*domain.PostRecord, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

// FollowGraph lists the identities a user follows.
type FollowGraph interface {
	FollowedIDs(ctx context.Context, userID string) ([]string, error)
}

// CountCache memoizes per-author post counts under a generation that every
// write bumps. Get reports the current generation even on a miss; a count
// Set under an older generation is never served.
type CountCache interface {
	Get(ctx context.Context, authorID string) (count, gen int64, ok bool, err error)
	Set(ctx context.Context, authorID string, gen, count int64) error
	Invalidate(ctx context.Context, authorID string) error
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, postID string, draft domain.Draft) error
	PublishPostUpdated(ctx context.Context, postID, authorID string) error
	PublishPostDeleted(ctx context.Context, postID, authorID string) error
}

// Sanitizer strips every tag and attribute.
type Sanitizer interface {
	Sanitize(s string) string
}

// AvatarResolver derives a display avatar from an author record.
type AvatarResolver interface {
	Avatar(author domain.Author) string
}
