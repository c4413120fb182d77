package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/auth"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/config"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/db"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/handlers"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/middleware"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/observability"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/presence"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/rabbitmq"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/storage"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/tasks"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/telemetry"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/ws"
)

const serviceName = "safevoice"

// presence records decay to offline on their own if the process dies
// before writing the offline flag
const presenceTTL = 2 * time.Minute

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	presenceStore, err := presence.NewRedisStore(cfg.RedisURL, presenceTTL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer presenceStore.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))

	if cfg.AMQPURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("observability events disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.logs", serviceName, cfg.Environment)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	profileRepo := repositories.NewProfileRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	blockRepo := repositories.NewBlockRepo(database)
	forumRepo := repositories.NewForumRepo(database)
	sosRepo := repositories.NewSOSRepo(database)

	hub := ws.NewHub()
	tracker := presence.NewTracker(presenceStore, hub)
	mediaStore := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)

	dispatcher, err := tasks.NewAsynqDispatcher(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to build dispatcher: %v", err)
	}
	defer dispatcher.Close()

	worker, mux, err := tasks.NewWorker(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to build worker: %v", err)
	}
	tasks.RegisterSOSDispatch(mux, sosRepo, auditPublisher)
	go func() {
		if err := worker.Run(mux); err != nil {
			log.Fatalf("worker error: %v", err)
		}
	}()

	authHandler := handlers.NewAuthHandler(profileRepo, tokens, tracker)
	dmHandler := handlers.NewDMHandler(messageRepo, profileRepo, blockRepo, mediaStore, hub, tracker)
	forumHandler := handlers.NewForumHandler(forumRepo)
	searchHandler := handlers.NewSearchHandler(forumRepo, profileRepo)
	sosHandler := handlers.NewSOSHandler(sosRepo, dispatcher, audit)
	dmSocket := ws.NewDMSocketHandler(hub, messageRepo, profileRepo, tokens, tracker, cfg.ConversationPollInterval)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(tokens)
	authOptional := middleware.OptionalAuth(tokens)

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/logout", authRequired, authHandler.Logout)
	router.GET("/auth/me", authRequired, authHandler.Me)

	dmRoutes := router.Group("/dm", authRequired)
	dmRoutes.GET("/conversations", dmHandler.ListConversations)
	dmRoutes.GET("/:peer_id/messages", dmHandler.GetHistory)
	dmRoutes.POST("/:peer_id/messages", dmHandler.SendMessage)
	dmRoutes.POST("/:peer_id/seen", dmHandler.MarkSeen)
	dmRoutes.POST("/:peer_id/block", dmHandler.Block)
	dmRoutes.DELETE("/:peer_id/block", dmHandler.Unblock)

	router.GET("/forum/posts", authOptional, forumHandler.ListPosts)
	router.GET("/forum/posts/:post_id", authOptional, forumHandler.GetPost)
	router.GET("/forum/posts/:post_id/comments", authOptional, forumHandler.ListComments)
	router.POST("/forum/posts", authRequired, forumHandler.CreatePost)
	router.POST("/forum/posts/:post_id/upvote", authRequired, forumHandler.UpvotePost)
	router.POST("/forum/posts/:post_id/downvote", authRequired, forumHandler.DownvotePost)
	router.POST("/forum/posts/:post_id/reshare", authRequired, forumHandler.ResharePost)
	router.POST("/forum/posts/:post_id/comments", authRequired, forumHandler.CreateComment)
	router.POST("/forum/comments/:comment_id/upvote", authRequired, forumHandler.UpvoteComment)

	router.GET("/search", authOptional, searchHandler.Search)

	// anonymous alerts are allowed, so auth stays optional here
	router.POST("/sos", authOptional, sosHandler.Create)

	router.GET("/ws/dm", dmSocket.Handle)

	router.Static("/media", cfg.MediaDir)

	handlers.RegisterDebugRoutes(router, audit, auditPublisher, cfg.Environment != "production")

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
