package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesagent/config"
	"salesagent/handlers"
	"salesagent/middleware"
	"salesagent/routes"
	"salesagent/services/booking"
	"salesagent/services/conversation"
	"salesagent/services/ingestion"
	"salesagent/services/upstream"
	"salesagent/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitGateCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Upstream client.
	upstreamClient := upstream.NewClient(
		config.AppConfig.UpstreamURL,
		config.AppConfig.DirectUpstreamURL,
		config.ChatTimeout(),
		config.IngestTimeout(),
		logger,
	)

	// Conversation sessions.
	sessionStore := conversation.NewStore(config.AppConfig.WelcomeMessage, config.SessionTTL())
	sweeperStop := make(chan struct{})
	sessionStore.StartSweeper(time.Minute, sweeperStop)
	chatEngine := conversation.NewEngine(upstreamClient, logger)

	// Services.
	ingestDispatcher := ingestion.NewDispatcher(upstreamClient, logger)
	leadBook := booking.NewLeadBook(upstreamClient, logger)
	adminTokens := utils.NewRedisAdminTokenStore(utils.GetGateCacheClient())

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Chat:        handlers.NewChatHandler(sessionStore, chatEngine, logger),
		Ingest:      handlers.NewIngestHandler(ingestDispatcher, logger),
		Booking:     handlers.NewBookingHandler(sessionStore, upstreamClient, logger),
		Admin:       handlers.NewAdminHandler(leadBook, adminTokens, logger),
		Voice:       handlers.NewVoiceHandler(sessionStore, logger),
		Proxy:       handlers.NewProxyHandler(upstreamClient, logger),
		AdminTokens: adminTokens,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(utils.GetGateCacheClient(), upstreamClient.Ping)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	close(sweeperStop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
