package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type followDoc struct {
	AuthorID   bson.ObjectID `bson:"authorId"`
	FollowedID bson.ObjectID `bson:"followedId"`
}

// MongoFollowGraph reads the follows collection. It never writes it.
type MongoFollowGraph struct {
	follows *mongo.Collection
}

func NewMongoFollowGraph(db *mongo.Database) *MongoFollowGraph {
	return &MongoFollowGraph{follows: db.Collection(followsCollection)}
}

func (g *MongoFollowGraph) EnsureIndexes(ctx context.Context) error {
	_, err := g.follows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "authorId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create follows index: %w", err)
	}
	return nil
}

func (g *MongoFollowGraph) FollowedIDs(ctx context.Context, userID string) ([]string, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return []string{}, nil
	}

	cur, err := g.follows.Find(ctx,
		bson.D{{Key: "authorId", Value: oid}},
		options.Find().SetProjection(bson.D{{Key: "followedId", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find follows: %w", err)
	}

	var docs []followDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode follows: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.FollowedID.Hex())
	}
	return ids, nil
}
