package ports

import (
	"context"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

// PostService is the driving port. Every read returns views composed for the visitor.
type PostService interface {
	// Commands
	Create(ctx context.Context, in domain.Submission, userID string) (string, error)
	Update(ctx context.Context, postID, userID string, in domain.Submission) error
	Delete(ctx context.Context, postID, userID string) error

	// Queries
	FindSingleByID(ctx context.Context, postID, visitorID string) (*domain.PostView, error)
	FindByAuthorID(ctx context.Context, authorID, visitorID string, page domain.Page) ([]*domain.PostView, error)
	Search(ctx context.Context, term any, visitorID string, page domain.Page) ([]*domain.PostView, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
	GetFeed(ctx context.Context, userID string, page domain.Page) ([]*domain.PostView, error)
}
