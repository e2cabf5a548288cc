package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Credential store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string   `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`
	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // CORS allowed origins

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	S3BucketName   string `env:"S3_BUCKET_NAME" envDefault:"taratrabaho-files"`
	SNSTopicARN    string `env:"SNS_TOPIC_ARN"`

	DynamoTables DynamoTables `envPrefix:"DYNAMO_TABLE_"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@taratrabaho.local"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/"`
	GeminiAPIVersion string `env:"GEMINI_API_VERSION" envDefault:"v1beta"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	Credentials Credentials
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string `env:"USERS" envDefault:"users"`
	UserEmails    string `env:"USER_EMAILS" envDefault:"user_emails"`
	Jobs          string `env:"JOBS" envDefault:"jobs"`
	Resumes       string `env:"RESUMES" envDefault:"resumes"`
	Applications  string `env:"APPLICATIONS" envDefault:"applications"`
	Chats         string `env:"CHATS" envDefault:"chats"`
	Notifications string `env:"NOTIFICATIONS" envDefault:"notifications"`
	Credentials   string `env:"CREDENTIALS" envDefault:"credentials"`
}

// Credentials configures the signup/OTP/reset workflow.
type Credentials struct {
	Backend           string        `env:"CREDENTIAL_BACKEND" envDefault:"memory"`
	OTPTTL            time.Duration `env:"OTP_TTL" envDefault:"5m"`
	PendingTTL        time.Duration `env:"PENDING_TTL" envDefault:"10m"`
	ResetTTL          time.Duration `env:"RESET_TTL" envDefault:"30m"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
	CleanupOnConflict bool          `env:"SIGNUP_CLEANUP_ON_CONFLICT" envDefault:"false"`
	OTPSendLimit      int           `env:"OTP_SEND_LIMIT" envDefault:"5"`
	OTPSendWindow     time.Duration `env:"OTP_SEND_WINDOW" envDefault:"15m"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Credentials.Backend {
	case BackendMemory, BackendDynamo:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("CREDENTIAL_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown CREDENTIAL_BACKEND %q", cfg.Credentials.Backend)
	}
	if cfg.Credentials.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.Credentials.SweepInterval)
	}
	return &cfg, nil
}
