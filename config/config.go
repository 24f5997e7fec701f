package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	FollowBackendMongo = "mongo"
	FollowBackendNeo4j = "neo4j"
)

type Config struct {
	Env         string // "local" or "prod"
	ServiceName string
	GRPCPort    string

	// Mongo (source of truth)
	MongoURL    string
	MongoDB     string
	SearchIndex string

	RedisAddr string
	NatsUrl   string

	// Follow graph: "mongo" reads the follows collection, "neo4j" the graph-service store
	FollowBackend string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPass     string

	// Empty means every caller is anonymous
	JWTPublicKeyPath string

	OtelEndpoint string
}

// Load reads the environment and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "local"),
		ServiceName:      getEnv("SERVICE_NAME", "post-service"),
		GRPCPort:         getEnv("GRPC_PORT", "50053"),
		MongoURL:         getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGO_DB", "ComplexApp"),
		SearchIndex:      getEnv("SEARCH_INDEX", "search-posts"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		NatsUrl:          getEnv("NATS_URL", "nats://localhost:4222"),
		FollowBackend:    strings.ToLower(getEnv("FOLLOW_BACKEND", FollowBackendMongo)),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPass:        getEnv("NEO4J_PASSWORD", "password"),
		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", ""),
		OtelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	switch cfg.FollowBackend {
	case FollowBackendMongo, FollowBackendNeo4j:
	default:
		return nil, fmt.Errorf("unknown FOLLOW_BACKEND %q", cfg.FollowBackend)
	}

	if cfg.Env == "prod" && cfg.JWTPublicKeyPath == "" {
		return nil, fmt.Errorf("JWT_PUBLIC_KEY_PATH is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
