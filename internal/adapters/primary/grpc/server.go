package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
	"github.com/jupiterclapton/complexapp/internal/core/ports"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Server struct {
	service ports.PostService
}

func NewServer(service ports.PostService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

// --- COMMANDS (Write) ---

func (s *Server) CreatePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	id, err := s.service.Create(ctx, domain.Submission(req.AsMap()), userID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return structpb.NewStruct(map[string]any{"id": id})
}

func (s *Server) UpdatePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	postID := stringField(req, "post_id")
	if postID == "" {
		return nil, status.Error(codes.InvalidArgument, "post_id required")
	}

	in := req.AsMap()
	delete(in, "post_id")

	if err := s.service.Update(ctx, postID, userID, domain.Submission(in)); err != nil {
		return nil, mapDomainError(err)
	}
	return structpb.NewStruct(map[string]any{"status": "success"})
}

func (s *Server) DeletePost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	postID := stringField(req, "post_id")
	if postID == "" {
		return nil, status.Error(codes.InvalidArgument, "post_id required")
	}

	if err := s.service.Delete(ctx, postID, userID); err != nil {
		return nil, mapDomainError(err)
	}
	return &structpb.Struct{}, nil
}

// --- QUERIES (Read) ---

func (s *Server) GetPost(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	post, err := s.service.FindSingleByID(ctx, stringField(req, "post_id"), UserIDFromContext(ctx))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return structpb.NewStruct(map[string]any{"post": viewToMap(post)})
}

func (s *Server) ListPostsByAuthor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	authorID := stringField(req, "author_id")
	if authorID == "" {
		return nil, status.Error(codes.InvalidArgument, "author_id required")
	}

	page := pageFrom(req)
	posts, err := s.service.FindByAuthorID(ctx, authorID, UserIDFromContext(ctx), lookahead(page))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return postsResponse(posts, page)
}

func (s *Server) SearchPosts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// The raw value goes through untouched; the service decides what a valid term is.
	var term any
	if v, ok := req.GetFields()["term"]; ok {
		term = v.AsInterface()
	}

	page := pageFrom(req)
	posts, err := s.service.Search(ctx, term, UserIDFromContext(ctx), lookahead(page))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return postsResponse(posts, page)
}

func (s *Server) CountPostsByAuthor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	authorID := stringField(req, "author_id")
	if authorID == "" {
		return nil, status.Error(codes.InvalidArgument, "author_id required")
	}

	n, err := s.service.CountPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return structpb.NewStruct(map[string]any{"count": n})
}

func (s *Server) GetFeed(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	page := pageFrom(req)
	posts, err := s.service.GetFeed(ctx, userID, lookahead(page))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return postsResponse(posts, page)
}

// --- HELPERS (Mappers) ---

func stringField(req *structpb.Struct, key string) string {
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

func pageFrom(req *structpb.Struct) domain.Page {
	limit := int64(req.GetFields()["limit"].GetNumberValue())
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := int64(req.GetFields()["offset"].GetNumberValue())
	if offset < 0 {
		offset = 0
	}
	return domain.Page{Limit: limit, Offset: offset}
}

// lookahead asks for one row past the page so the response can tell whether more exist.
func lookahead(page domain.Page) domain.Page {
	return domain.Page{Limit: page.Limit + 1, Offset: page.Offset}
}

func viewToMap(p *domain.PostView) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"title":          p.Title,
		"body":           p.Body,
		"createDate":     p.CreateDate.UTC().Format(time.RFC3339Nano),
		"isVisitorOwner": p.IsVisitorOwner,
		"author": map[string]any{
			"username": p.Author.Username,
			"avatar":   p.Author.Avatar,
		},
	}
}

// postsResponse trims the lookahead row. has_more is always set; next_offset
// only when there is a next page.
func postsResponse(posts []*domain.PostView, page domain.Page) (*structpb.Struct, error) {
	hasMore := int64(len(posts)) > page.Limit
	if hasMore {
		posts = posts[:page.Limit]
	}

	list := make([]any, len(posts))
	for i, p := range posts {
		list[i] = viewToMap(p)
	}

	out := map[string]any{"posts": list, "has_more": hasMore}
	if hasMore {
		out["next_offset"] = page.Offset + page.Limit
	}
	return structpb.NewStruct(out)
}

// mapDomainError translates domain errors into gRPC status codes.
func mapDomainError(err error) error {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return status.Error(codes.InvalidArgument, verrs.Error())
	case errors.Is(err, domain.ErrPostNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSearchTerm):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		// infrastructure failure: log it, keep the details off the wire
		slog.Error("Request failed", "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}
