package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration. Values come from an optional YAML
// file (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	AppPort string `yaml:"app_port"`
	AppEnv  string `yaml:"app_env"`

	AWSRegion      string `yaml:"aws_region"`
	AWSEndpointURL string `yaml:"aws_endpoint_url"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `yaml:"aws_access_key_id"`
	AWSSecretKey   string `yaml:"aws_secret_access_key"`

	DynamoTables DynamoTables `yaml:"dynamo_tables"`
	S3BucketName string       `yaml:"s3_bucket_name"`

	JWTPrivateKeyPath      string        `yaml:"jwt_private_key_path"`
	JWTPublicKeyPath       string        `yaml:"jwt_public_key_path"`
	JWTExpiry              time.Duration `yaml:"jwt_expiry"`
	PendingRegistrationTTL time.Duration `yaml:"pending_registration_ttl"`
	VerificationCodeTTL    time.Duration `yaml:"verification_code_ttl"`
	CookieSecure           bool          `yaml:"cookie_secure"`
	DirectorEmails         []string      `yaml:"director_emails"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPFrom     string `yaml:"smtp_from"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`

	MailWorkers    int     `yaml:"mail_workers"`
	MailQueueSize  int     `yaml:"mail_queue_size"`
	MailRatePerSec float64 `yaml:"mail_rate_per_sec"`

	SNSRegion       string `yaml:"sns_region"`
	SNSTaskTopicARN string `yaml:"sns_task_topic_arn"` // empty disables task event publishing

	AllowedOrigins []string `yaml:"allowed_origins"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string `yaml:"users"`
	Projects      string `yaml:"projects"`
	Tasks         string `yaml:"tasks"`
	Notifications string `yaml:"notifications"`
	Attachments   string `yaml:"attachments"`
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		AppPort:   "3000",
		AppEnv:    "development",
		AWSRegion: "us-east-1",
		DynamoTables: DynamoTables{
			Users:         "users",
			Projects:      "projects",
			Tasks:         "tasks",
			Notifications: "notifications",
			Attachments:   "attachments",
		},
		S3BucketName:           "taskflow-attachments",
		JWTPrivateKeyPath:      "./private_key.pem",
		JWTPublicKeyPath:       "./public_key.pem",
		JWTExpiry:              7 * 24 * time.Hour,
		PendingRegistrationTTL: 15 * time.Minute,
		VerificationCodeTTL:    300 * time.Second,
		SMTPHost:               "localhost",
		SMTPPort:               1025,
		SMTPFrom:               "noreply@example.com",
		MailWorkers:            2,
		MailQueueSize:          100,
		MailRatePerSec:         5,
		SNSRegion:              "us-east-1",
		AllowedOrigins:         []string{"*"},
	}
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var doc yaml.Node
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config file: %w", err)
	}
	secondsToDuration(&doc)
	if err := doc.Decode(cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// durationKeys are the top-level yaml keys decoded into time.Duration.
var durationKeys = map[string]bool{
	"jwt_expiry":               true,
	"pending_registration_ttl": true,
	"verification_code_ttl":    true,
}

// secondsToDuration rewrites integer duration values to "<n>s" so the file
// accepts plain seconds the same way getEnvDuration does.
func secondsToDuration(doc *yaml.Node) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!int" {
			val.Value += "s"
			val.Tag = "!!str"
		}
	}
}

func applyEnv(c *Config) {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.AWSEndpointURL = getEnv("AWS_ENDPOINT_URL", c.AWSEndpointURL)
	c.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", c.AWSAccessKeyID)
	c.AWSSecretKey = getEnv("AWS_SECRET_ACCESS_KEY", c.AWSSecretKey)

	c.DynamoTables.Users = getEnv("DYNAMO_TABLE_USERS", c.DynamoTables.Users)
	c.DynamoTables.Projects = getEnv("DYNAMO_TABLE_PROJECTS", c.DynamoTables.Projects)
	c.DynamoTables.Tasks = getEnv("DYNAMO_TABLE_TASKS", c.DynamoTables.Tasks)
	c.DynamoTables.Notifications = getEnv("DYNAMO_TABLE_NOTIFICATIONS", c.DynamoTables.Notifications)
	c.DynamoTables.Attachments = getEnv("DYNAMO_TABLE_ATTACHMENTS", c.DynamoTables.Attachments)
	c.S3BucketName = getEnv("S3_BUCKET_NAME", c.S3BucketName)

	c.JWTPrivateKeyPath = getEnv("JWT_PRIVATE_KEY_PATH", c.JWTPrivateKeyPath)
	c.JWTPublicKeyPath = getEnv("JWT_PUBLIC_KEY_PATH", c.JWTPublicKeyPath)
	c.JWTExpiry = getEnvDuration("JWT_EXPIRY", c.JWTExpiry)
	c.PendingRegistrationTTL = getEnvDuration("PENDING_REGISTRATION_TTL", c.PendingRegistrationTTL)
	c.VerificationCodeTTL = getEnvDuration("VERIFICATION_CODE_TTL", c.VerificationCodeTTL)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)
	c.DirectorEmails = getEnvList("DIRECTOR_EMAILS", c.DirectorEmails)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPFrom = getEnv("SMTP_FROM", c.SMTPFrom)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)

	c.MailWorkers = getEnvInt("MAIL_WORKERS", c.MailWorkers)
	c.MailQueueSize = getEnvInt("MAIL_QUEUE_SIZE", c.MailQueueSize)
	c.MailRatePerSec = getEnvFloat("MAIL_RATE_PER_SEC", c.MailRatePerSec)

	c.SNSRegion = getEnv("SNS_REGION", c.SNSRegion)
	c.SNSTaskTopicARN = getEnv("SNS_TASK_TOPIC_ARN", c.SNSTaskTopicARN)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("5m") or plain seconds ("300").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
