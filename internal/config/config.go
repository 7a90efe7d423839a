package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	AppBaseURL  string `envconfig:"APP_BASE_URL" default:"http://localhost:3000"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Stripe settings
	StripeSecretKey       string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret   string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripePriceMonthly    string `envconfig:"STRIPE_PRICE_MONTHLY" required:"true"`
	StripePriceAnnual     string `envconfig:"STRIPE_PRICE_ANNUAL" required:"true"`
	StripePortalReturnURL string `envconfig:"STRIPE_PORTAL_RETURN_URL" default:"http://localhost:3000/account"`

	// Model provider settings
	ModelAPIKey  string `envconfig:"MODEL_API_KEY" required:"true"`
	ModelBaseURL string `envconfig:"MODEL_BASE_URL" default:"https://api.openai.com/v1"`
	ModelName    string `envconfig:"MODEL_NAME" default:"gpt-4o-mini"`
	// ModelRPM caps model calls per minute across a generation run.
	ModelRPM int `envconfig:"MODEL_RPM" default:"6"`

	// Liveblocks settings
	LiveblocksSecretKey string `envconfig:"LIVEBLOCKS_SECRET_KEY" required:"true"`

	// Avatar object storage settings (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"avatars"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// GCP settings (Pub/Sub fan-out, Secret Manager BYOK)
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubNotificationTopic       string `envconfig:"PUBSUB_NOTIFICATION_TOPIC" default:"notification-events"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`

	// Generation orchestrator settings
	GenerationQueueName         string `envconfig:"GENERATION_QUEUE_NAME" default:"generation_queue"`
	GenerationPollTimeoutSec    int    `envconfig:"GENERATION_POLL_TIMEOUT_SEC" default:"30"`
	GenerationPollMaxMsg        int    `envconfig:"GENERATION_POLL_MAX_MSG" default:"1"`
	GenerationMaxRetries        int    `envconfig:"GENERATION_MAX_RETRIES" default:"3"`
	GenerationBackoffInitialSec int    `envconfig:"GENERATION_BACKOFF_INITIAL_SEC" default:"5"`
	GenerationBackoffMaxSec     int    `envconfig:"GENERATION_BACKOFF_MAX_SEC" default:"120"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
