package repository

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

const (
	usersCollection   = "users"
	postsCollection   = "posts"
	followsCollection = "follows"
)

// composePipeline wraps the caller's stages around the fixed author join and projection.
// Every read of the posts collection goes through it so the row shape never varies.
func composePipeline(unique, trailing mongo.Pipeline) mongo.Pipeline {
	p := make(mongo.Pipeline, 0, len(unique)+2+len(trailing))
	p = append(p, unique...)
	p = append(p,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorDocument"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "body", Value: 1},
			{Key: "createDate", Value: 1},
			{Key: "authorId", Value: "$author"},
			{Key: "author", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$authorDocument", 0}}}},
		}}},
	)
	return append(p, trailing...)
}

func matchStage(filter bson.D) bson.D {
	return bson.D{{Key: "$match", Value: filter}}
}

func newestFirst() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{{Key: "createDate", Value: -1}}}}
}

// searchStage queries the Atlas Search index across every indexed field.
// $search must be the first stage of a pipeline.
func searchStage(index, term string) bson.D {
	return bson.D{{Key: "$search", Value: bson.D{
		{Key: "index", Value: index},
		{Key: "text", Value: bson.D{
			{Key: "query", Value: term},
			{Key: "path", Value: bson.D{{Key: "wildcard", Value: "*"}}},
		}},
	}}}
}

// pageStages renders a Page as trailing $skip/$limit stages. The zero Page adds nothing.
func pageStages(page domain.Page) mongo.Pipeline {
	var p mongo.Pipeline
	if page.Offset > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: page.Offset}})
	}
	if page.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: page.Limit}})
	}
	return p
}
