package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/credstore"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/awsinfra"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/dynamo"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/gemini"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/google"
	jwtinfra "github.com/taratrabaho/jobboard-api/internal/infrastructure/jwt"
	redisinfra "github.com/taratrabaho/jobboard-api/internal/infrastructure/redis"
	s3infra "github.com/taratrabaho/jobboard-api/internal/infrastructure/s3"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/sns"
	"github.com/taratrabaho/jobboard-api/internal/pkg/ratelimit"
	transporthttp "github.com/taratrabaho/jobboard-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsinfra.Load(ctx, cfg)
	if err != nil {
		slog.Error("aws config", "error", err)
		os.Exit(1)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName)
	if err := s3Store.EnsureBucket(ctx); err != nil {
		slog.Warn("s3 bucket not ready", "bucket", cfg.S3BucketName, "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = redisinfra.NewClient(ctx, cfg)
		if err != nil {
			if cfg.Credentials.Backend == config.BackendRedis {
				slog.Error("redis", "error", err)
				os.Exit(1)
			}
			slog.Warn("redis not available, using in-process limiter", "error", err)
			redisClient = nil
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserEmails),
		JobRepo:          dynamo.NewJobRepo(dynamoClient, cfg.DynamoTables.Jobs),
		ResumeRepo:       dynamo.NewResumeRepo(dynamoClient, cfg.DynamoTables.Resumes),
		ApplicationRepo:  dynamo.NewApplicationRepo(dynamoClient, cfg.DynamoTables.Applications),
		ChatRepo:         dynamo.NewChatRepo(dynamoClient, cfg.DynamoTables.Chats),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		Objects:          s3Store,
		Mailer:           smtp.NewMailer(cfg),
	}

	sweeper := credstore.NewSweeper(cfg.Credentials.SweepInterval, credstore.SystemClock)
	switch cfg.Credentials.Backend {
	case config.BackendRedis:
		otps := credstore.NewRedis[domain.OTPRecord](redisClient, "cred:otp", credstore.SystemClock)
		pending := credstore.NewRedis[domain.PendingRegistration](redisClient, "cred:pending", credstore.SystemClock)
		resets := credstore.NewRedis[domain.ResetToken](redisClient, "cred:reset", credstore.SystemClock)
		deps.OTPs, deps.Pending, deps.Resets = otps, pending, resets
		sweeper.Register("otp", otps)
		sweeper.Register("pending", pending)
		sweeper.Register("reset", resets)
	case config.BackendDynamo:
		table := cfg.DynamoTables.Credentials
		otps := dynamo.NewCredentialStore[domain.OTPRecord](dynamoClient, table, "otp", credstore.SystemClock)
		pending := dynamo.NewCredentialStore[domain.PendingRegistration](dynamoClient, table, "pending", credstore.SystemClock)
		resets := dynamo.NewCredentialStore[domain.ResetToken](dynamoClient, table, "reset", credstore.SystemClock)
		deps.OTPs, deps.Pending, deps.Resets = otps, pending, resets
		sweeper.Register("otp", otps)
		sweeper.Register("pending", pending)
		sweeper.Register("reset", resets)
	default:
		otps := credstore.NewMemory[domain.OTPRecord](credstore.SystemClock)
		pending := credstore.NewMemory[domain.PendingRegistration](credstore.SystemClock)
		resets := credstore.NewMemory[domain.ResetToken](credstore.SystemClock)
		deps.OTPs, deps.Pending, deps.Resets = otps, pending, resets
		sweeper.Register("otp", otps)
		sweeper.Register("pending", pending)
		sweeper.Register("reset", resets)
	}
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// OTP sends are limited per email; sensitive routes per client IP.
	if redisClient != nil {
		deps.OTPLimiter = redisinfra.NewWindowLimiter(redisClient, "ratelimit:otp:", cfg.Credentials.OTPSendLimit, cfg.Credentials.OTPSendWindow)
	} else {
		otpLimiter := ratelimit.PerWindow(cfg.Credentials.OTPSendLimit, cfg.Credentials.OTPSendWindow)
		defer otpLimiter.Close()
		deps.OTPLimiter = otpLimiter
	}
	ipLimiter := ratelimit.NewKeyed(5, 10, 10*time.Minute)
	defer ipLimiter.Close()
	deps.IPLimiter = ipLimiter

	// JWT provider (optional: token routes answer 503 without keys).
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.Tokens = p
	} else {
		slog.Warn("JWT provider not available", "error", err)
	}

	if cfg.GoogleClientID != "" {
		deps.Google = google.NewVerifier(cfg.GoogleClientID)
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	if cfg.GeminiAPIKey != "" {
		if ai, err := gemini.NewClient(ctx, cfg); err == nil {
			deps.AI = ai
		} else {
			slog.Warn("gemini client not available, recommendations use the newest jobs", "error", err)
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, recommendations use the newest jobs")
	}

	if cfg.SNSTopicARN != "" {
		deps.Publisher = sns.NewPublisher(awsCfg, cfg)
	} else {
		slog.Warn("SNS_TOPIC_ARN not set, application tracking notices disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "credentials", cfg.Credentials.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
