package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
	"github.com/jupiterclapton/complexapp/internal/core/ports"
)

// postDoc is the stored shape. Domain types carry no bson tags.
type postDoc struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Title      string        `bson:"title"`
	Body       string        `bson:"body"`
	CreateDate time.Time     `bson:"createDate"`
	Author     bson.ObjectID `bson:"author"`
}

type authorDoc struct {
	Username string `bson:"username"`
	Email    string `bson:"email"`
}

// composedDoc is one row out of composePipeline.
type composedDoc struct {
	ID         bson.ObjectID `bson:"_id"`
	Title      string        `bson:"title"`
	Body       string        `bson:"body"`
	CreateDate time.Time     `bson:"createDate"`
	AuthorID   bson.ObjectID `bson:"authorId"`
	Author     *authorDoc    `bson:"author"`
}

var _ ports.PostRepository = (*MongoRepo)(nil)

type MongoRepo struct {
	posts       *mongo.Collection
	searchIndex string
}

func NewMongoRepo(db *mongo.Database, searchIndex string) *MongoRepo {
	return &MongoRepo{
		posts:       db.Collection(postsCollection),
		searchIndex: searchIndex,
	}
}

// EnsureIndexes backs the by-author listing and count. Idempotent.
// The search index is managed by Atlas, not here.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author", Value: 1}, {Key: "createDate", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create posts index: %w", err)
	}
	return nil
}

// --- WRITES ---

func (r *MongoRepo) Insert(ctx context.Context, draft domain.Draft) (string, error) {
	author, err := bson.ObjectIDFromHex(draft.AuthorID)
	if err != nil {
		return "", fmt.Errorf("invalid author id %q: %w", draft.AuthorID, err)
	}

	res, err := r.posts.InsertOne(ctx, postDoc{
		Title:      draft.Title,
		Body:       draft.Body,
		CreateDate: draft.CreateDate,
		Author:     author,
	})
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}

	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (r *MongoRepo) UpdateContent(ctx context.Context, postID, title, body string) error {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return domain.ErrPostNotFound
	}

	res, err := r.posts.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, contentUpdate(title, body))
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, postID string) error {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return domain.ErrPostNotFound
	}

	if _, err := r.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// --- READS ---

func (r *MongoRepo) FindByID(ctx context.Context, postID string) (*domain.PostRecord, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, domain.ErrPostNotFound
	}

	records, err := r.composeQuery(ctx, mongo.Pipeline{
		matchStage(bson.D{{Key: "_id", Value: oid}}),
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrPostNotFound
	}
	return records[0], nil
}

func (r *MongoRepo) ListByAuthor(ctx context.Context, authorID string, page domain.Page) ([]*domain.PostRecord, error) {
	oid, err := bson.ObjectIDFromHex(authorID)
	if err != nil {
		// a malformed id cannot match anything
		return []*domain.PostRecord{}, nil
	}

	return r.composeQuery(ctx, mongo.Pipeline{
		matchStage(bson.D{{Key: "author", Value: oid}}),
		newestFirst(),
	}, pageStages(page))
}

func (r *MongoRepo) ListByAuthors(ctx context.Context, authorIDs []string, page domain.Page) ([]*domain.PostRecord, error) {
	oids := toObjectIDs(authorIDs)
	if len(oids) == 0 {
		return []*domain.PostRecord{}, nil
	}

	return r.composeQuery(ctx, mongo.Pipeline{
		matchStage(bson.D{{Key: "author", Value: bson.D{{Key: "$in", Value: oids}}}}),
		newestFirst(),
	}, pageStages(page))
}

func (r *MongoRepo) Search(ctx context.Context, term string, page domain.Page) ([]*domain.PostRecord, error) {
	return r.composeQuery(ctx, mongo.Pipeline{
		searchStage(r.searchIndex, term),
	}, pageStages(page))
}

func (r *MongoRepo) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(authorID)
	if err != nil {
		return 0, nil
	}

	n, err := r.posts.CountDocuments(ctx, bson.D{{Key: "author", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// --- HELPERS ---

// composeQuery runs the shared pipeline. Rows keep their raw author id for the service.
func (r *MongoRepo) composeQuery(ctx context.Context, unique, trailing mongo.Pipeline) ([]*domain.PostRecord, error) {
	cur, err := r.posts.Aggregate(ctx, composePipeline(unique, trailing))
	if err != nil {
		return nil, fmt.Errorf("aggregate posts: %w", err)
	}

	var docs []composedDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	records := make([]*domain.PostRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].toDomain())
	}
	return records, nil
}

func (d *composedDoc) toDomain() *domain.PostRecord {
	rec := &domain.PostRecord{
		ID:         d.ID.Hex(),
		Title:      d.Title,
		Body:       d.Body,
		CreateDate: d.CreateDate,
	}
	if !d.AuthorID.IsZero() {
		rec.AuthorID = d.AuthorID.Hex()
	}
	// the author may have been removed from users; keep the post, blank the author
	if d.Author != nil {
		rec.Author = domain.Author{Username: d.Author.Username, Email: d.Author.Email}
	}
	return rec
}

// contentUpdate touches title and body only; createDate and author stay as stored.
func contentUpdate(title, body string) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: title},
		{Key: "body", Value: body},
	}}}
}

func toObjectIDs(ids []string) []bson.ObjectID {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
