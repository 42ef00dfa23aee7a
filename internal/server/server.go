// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/glimpsed/datecoord/internal/coordinator"
	"github.com/glimpsed/datecoord/internal/dates"
	"github.com/glimpsed/datecoord/internal/server/api"
)

func NewServer(
	serviceName string,
	svc *dates.Service,
	coord *coordinator.Coordinator,
) *Server {
	return &Server{
		logger:      slog.Default().WithGroup("http"),
		serviceName: serviceName,
		svc:         svc,
		coord:       coord,
	}
}

type Server struct {
	serviceName string
	logger      *slog.Logger
	svc         *dates.Service
	coord       *coordinator.Coordinator
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := gin.New()
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	middlewares := []gin.HandlerFunc{
		sloggin.NewWithConfig(s.logger,
			sloggin.Config{
				DefaultLevel:     slog.LevelInfo,
				ClientErrorLevel: slog.LevelWarn,
				ServerErrorLevel: slog.LevelError,
			},
		),
		gin.Recovery(), otelgin.Middleware(s.serviceName), slogAddTraceAttributes,
	}
	mux.Use(middlewares...)

	handler := api.NewProposalHandler(s.svc, s.coord)
	proposals := mux.Group("/api/dates")
	proposals.POST("", handler.Create)
	proposals.GET("", handler.List)
	proposals.GET("/:uuid", handler.Get)
	proposals.DELETE("/:uuid", handler.Delete)
	proposals.POST("/:uuid/respond", handler.Respond)
	proposals.POST("/:uuid/coordinate", handler.Coordinate)
	proposals.GET("/:uuid/calendar", handler.Calendar)

	mux.NoRoute(notFound)

	mux.ServeHTTP(w, r)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"code": "PAGE_NOT_FOUND", "message": "Page not found"})
}

func slogAddTraceAttributes(c *gin.Context) {
	sloggin.AddCustomAttributes(c,
		slog.String("trace-id", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
	)
	sloggin.AddCustomAttributes(c,
		slog.String("span-id", trace.SpanFromContext(c.Request.Context()).SpanContext().SpanID().String()),
	)
	c.Next()
}
