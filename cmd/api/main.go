package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskflow-api/internal/application/verification"
	"github.com/taskflow-api/internal/config"
	"github.com/taskflow-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/taskflow-api/internal/infrastructure/jwt"
	s3infra "github.com/taskflow-api/internal/infrastructure/s3"
	"github.com/taskflow-api/internal/infrastructure/smtp"
	"github.com/taskflow-api/internal/infrastructure/sns"
	transporthttp "github.com/taskflow-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(cfg)
	if err != nil {
		log.Fatalf("dynamo client: %v", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	s3Client, err := s3infra.NewClient(cfg)
	if err != nil {
		log.Fatalf("s3 client: %v", err)
	}
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)
	if err := s3Store.EnsureBucket(ctx); err != nil {
		log.Printf("WARN: %v", err)
	}

	// Task events go to SNS only when a topic is configured.
	publisher, err := sns.NewPublisher(cfg)
	if err != nil {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	dispatcher := smtp.NewDispatcher(smtp.NewMailer(cfg), cfg.MailWorkers, cfg.MailQueueSize, cfg.MailRatePerSec)
	codes := verification.NewStore(cfg.VerificationCodeTTL)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		ProjectRepo:      dynamo.NewProjectRepo(dynamoClient, cfg.DynamoTables.Projects),
		TaskRepo:         dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		AttachmentRepo:   dynamo.NewAttachmentRepo(dynamoClient, cfg.DynamoTables.Attachments),
		S3Store:          s3Store,
		Mailer:           dispatcher,
		Publisher:        publisher,
		JWTProvider:      jwtProvider,
		Codes:            codes,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	// Handlers are done; flush queued mail before the code store goes away.
	dispatcher.Close()
	codes.Close()
	log.Println("Server stopped")
}
