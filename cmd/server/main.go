// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/glimpsed/datecoord/internal/config"
	"github.com/glimpsed/datecoord/internal/coordinator"
	"github.com/glimpsed/datecoord/internal/dates"
	"github.com/glimpsed/datecoord/internal/db"
	"github.com/glimpsed/datecoord/internal/db/kvdb"
	"github.com/glimpsed/datecoord/internal/db/memdb"
	"github.com/glimpsed/datecoord/internal/server"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		serviceName    = flag.String("service-name", cfg.ServiceName, "otel service name")
		addr           = flag.String("addr", cfg.Addr, "default server address")
		dbStr          = flag.String("db", cfg.DB, "database connection string, memdb:// or kvdb://path/to/file.db")
		otlpAddr       = flag.String("otlp-grpc", cfg.OTLPAddr, "otlp/gRPC address, by default disabled. Example value: localhost:4317")
		logLevelArg    = flag.String("log-level", cfg.LogLevel, "log level")
		bookingTimeout = flag.Duration("booking-timeout", cfg.BookingTimeout, "per booking sub-task timeout")
	)
	flag.Parse()

	var logLevel slog.Level
	err = logLevel.UnmarshalText([]byte(*logLevelArg))
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(jsonHandler)
	if err != nil {
		logger.Error("unable to parse log level", "level-input", *logLevelArg, "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)
	logger.Info("start and listen", "address", *addr)
	logger.Info("otlp/gRPC", "address", *otlpAddr, "service", *serviceName)

	if *otlpAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		grpcOptions := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock()}
		conn, err := grpc.DialContext(ctx, *otlpAddr, grpcOptions...)
		if err != nil {
			logger.Error("failed to create gRPC connection to collector", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		otelExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			logger.Error("failed to create trace exporter", "error", err)
			os.Exit(1)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(otelExporter))
		otel.SetTracerProvider(tp)
	}

	var proposalStore db.ProposalStore

	u, err := url.Parse(*dbStr)
	if err != nil {
		logger.Error("unable to parse db connection string", "error", err)
		os.Exit(1)
	}

	switch u.Scheme {
	case "memdb":
		proposalStore = memdb.NewProposalStore()
	case "kvdb":
		path := u.Host + u.Path
		database, err := bolt.Open(path, 0600, nil)
		if err != nil {
			logger.Error("could not open proposal database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		proposalStore, err = kvdb.NewProposalStore(database)
		if err != nil {
			logger.Error("could not initialize proposal bucket", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("Unknown storage backend", "type", u.Scheme)
		os.Exit(1)
	}

	svc := dates.NewService(proposalStore)
	coord := coordinator.New(svc, proposalStore, coordinator.Config{
		TaskTimeout: *bookingTimeout,
	})

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.NewServer(*serviceName, svc, coord),
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("error during listen and serve", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown")
}
