package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const followedQuery = `MATCH (u:User {id: $userId})-[:FOLLOWS]->(f:User) RETURN f.id AS followedId`

// Neo4jFollowGraph reads FOLLOWS edges written by the graph service.
type Neo4jFollowGraph struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jFollowGraph(driver neo4j.DriverWithContext) *Neo4jFollowGraph {
	return &Neo4jFollowGraph{driver: driver}
}

func (g *Neo4jFollowGraph) FollowedIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, followedQuery, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}

		ids := []string{}
		for res.Next(ctx) {
			raw, _ := res.Record().Get("followedId")
			if id, ok := raw.(string); ok {
				ids = append(ids, id)
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j followed ids: %w", err)
	}
	return result.([]string), nil
}
