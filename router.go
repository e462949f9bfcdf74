package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/handler"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Services groups everything the HTTP layer depends on.
type Services struct {
	Sessions     *service.SessionService
	Participants *service.ParticipantService
	Profiles     *service.ProfileService
	Models       *service.ModelService
	Hub          *event.Hub
	Invites      handler.InviteSettings
}

type Server struct {
	ginEngine *gin.Engine
	logger    *slog.Logger
	host      string
	port      int
}

func NewServer(host string, port int, svc Services, allowedOrigins []string) *Server {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	ginEngine.Use(corsMiddleware(allowedOrigins))

	server := &Server{
		ginEngine: ginEngine,
		logger:    utils.GetLogger(),
		host:      host,
		port:      port,
	}

	server.SetupRoutes(svc)

	return server
}

// corsMiddleware allows localhost origins plus the configured public origins.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If there's no Origin header, it's not a browser CORS request.
		if origin != "" {
			allowed := strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1")
			for _, o := range allowedOrigins {
				if o != "" && origin == o {
					allowed = true
				}
			}

			if !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+handler.HeaderUserID+", "+handler.HeaderUserName)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	// Attempt to listen on port first; if occupied return error immediately
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) SetupRoutes(svc Services) {
	// API group
	// /api
	apiGroup := s.ginEngine.Group("/api")

	// Runtime info for clients discovering the correct base URLs
	apiGroup.GET("/runtime", func(c *gin.Context) {
		host := s.host
		if host == "" || host == "0.0.0.0" {
			host = "127.0.0.1"
		}
		c.JSON(http.StatusOK, models.RuntimeInfo{
			HTTPBaseURL: fmt.Sprintf("http://%s:%d", host, s.port),
			WSBaseURL:   fmt.Sprintf("ws://%s:%d", host, s.port),
			Port:        s.port,
		})
	})

	// Model provider routes need no participant identity
	// /api/models
	handler.NewModelHandler(svc.Models).RegisterRoutes(apiGroup)

	// Everything below acts on behalf of a participant
	userGroup := apiGroup.Group("")
	userGroup.Use(handler.RequireUser())

	// /api/sessions
	handler.NewSessionHandler(svc.Sessions, svc.Participants, event.NewWSHandler(svc.Hub), svc.Invites).RegisterRoutes(userGroup)

	// /api/settings/mediator
	handler.NewSettingsHandler(svc.Profiles).RegisterRoutes(userGroup)
}
