package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	// Instrumentation
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/v2/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Internal
	"github.com/jupiterclapton/complexapp/config"
	grpc_adapter "github.com/jupiterclapton/complexapp/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/avatar"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/graph"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/complexapp/internal/adapters/secondary/sanitizer"
	"github.com/jupiterclapton/complexapp/internal/core/ports"
	"github.com/jupiterclapton/complexapp/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)
	slog.Info("🚀 Starting Post Service", "env", cfg.Env, "follow_backend", cfg.FollowBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Tracing
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Mongo: one client for the whole process
	mongoClient, err := mongo.Connect(options.Client().
		ApplyURI(cfg.MongoURL).
		SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		slog.Error("Unable to create Mongo client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mongoClient.Ping(pingCtx, readpref.Primary())
	pingCancel()
	if err != nil {
		slog.Error("Unable to reach MongoDB", "error", err)
		os.Exit(1)
	}
	db := mongoClient.Database(cfg.MongoDB)
	slog.Info("✅ Connected to MongoDB", "database", cfg.MongoDB)

	postRepo := repository.NewMongoRepo(db, cfg.SearchIndex)
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		slog.Warn("Could not ensure post indexes", "error", err)
	}

	// 4. Follow graph
	var follows ports.FollowGraph
	switch cfg.FollowBackend {
	case config.FollowBackendNeo4j:
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			slog.Error("Unable to create Neo4j driver", "error", err)
			os.Exit(1)
		}
		defer func() { _ = driver.Close(context.Background()) }()
		if err := driver.VerifyConnectivity(ctx); err != nil {
			slog.Error("Unable to reach Neo4j", "error", err)
			os.Exit(1)
		}
		follows = graph.NewNeo4jFollowGraph(driver)
		slog.Info("✅ Connected to Neo4j")
	default:
		mongoFollows := repository.NewMongoFollowGraph(db)
		if err := mongoFollows.EnsureIndexes(ctx); err != nil {
			slog.Warn("Could not ensure follow indexes", "error", err)
		}
		follows = mongoFollows
	}

	// 5. Redis (count cache)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Warn("Failed to instrument Redis", "error", err)
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Redis")

	// 6. NATS JetStream
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	eventPub, err := eventbroker.NewNatsPublisher(ctx, nc)
	if err != nil {
		slog.Error("Unable to set up JetStream", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to NATS", "stream", eventbroker.StreamName)

	// 7. Core
	postService := services.NewPostService(
		postRepo,
		follows,
		cache.NewRedisCountCache(rdb),
		eventPub,
		sanitizer.NewStrictSanitizer(),
		avatar.NewGravatar(),
	)

	// 8. Auth
	var verifier *grpc_adapter.TokenVerifier
	if cfg.JWTPublicKeyPath != "" {
		pem, err := os.ReadFile(cfg.JWTPublicKeyPath)
		if err != nil {
			slog.Error("Unable to read JWT public key", "error", err)
			os.Exit(1)
		}
		verifier, err = grpc_adapter.NewTokenVerifier(pem)
		if err != nil {
			slog.Error("Invalid JWT public key", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("⚠️ No JWT public key configured, every caller is anonymous")
	}

	// 9. gRPC server
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpc_adapter.UnaryAuthInterceptor(verifier)),
	)

	grpc_adapter.NewServer(postService).Register(grpcServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Env != "prod" {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}

	slog.Info("📡 Post Service listening", "port", cfg.GRPCPort, "service", grpc_adapter.ServiceName)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		slog.Warn("Graceful stop timed out, forcing")
		grpcServer.Stop()
	}
	slog.Info("👋 Server exited")
}

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler).With("service", cfg.ServiceName))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
