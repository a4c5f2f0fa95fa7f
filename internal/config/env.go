package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	MarketProviderAlphaVantage = "alphavantage"
	MarketProviderAlpaca       = "alpaca"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"console"` // json or console

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SslCertPath string `env:"SSL_CERT_PATH"`

	JWTSecret string `env:"JWT_SECRET"`

	AIAPIKey       string `env:"GEMINI_API_KEY"`
	GenModel       string `env:"GEN_MODEL" envDefault:"gemini-2.5-flash"`
	SentimentModel string `env:"SENTIMENT_MODEL" envDefault:"gemini-2.5-pro"`

	MarketProvider     string `env:"MARKET_PROVIDER" envDefault:"alphavantage"`
	AlphaVantageKey    string `env:"ALPHA_VANTAGE_API_KEY"`
	AlphaVantageURL    string `env:"ALPHA_VANTAGE_BASE_URL" envDefault:"https://www.alphavantage.co/query"`
	AlpacaKeyID        string `env:"APCA_API_KEY_ID"`
	AlpacaSecretKey    string `env:"APCA_API_SECRET_KEY"`
	MarketTimeoutSecs  int    `env:"MARKET_HTTP_TIMEOUT" envDefault:"15"`
	TopPerformerTicker string `env:"TOP_PERFORMERS" envDefault:"AAPL,MSFT,GOOGL,AMZN,TSLA,META,NVDA,NFLX,CRM,AMD"`

	// Article archive is optional; leave BUCKET_NAME empty to disable it.
	AwsAccessKey string `env:"AWS_ACCESS_KEY"`
	AwsSecretKey string `env:"AWS_SECRET_KEY"`
	AwsRegion    string `env:"AWS_REGION" envDefault:"us-east-2"`
	BucketName   string `env:"BUCKET_NAME"`
	MaxUploadMB  int64  `env:"MAX_UPLOAD_MB" envDefault:"10"`
}

// LoadConfig loads .env (when present) and the process environment, then
// verifies that every credential the selected drivers need is set.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing setting at once.
func (c *Config) Validate() error {
	var missing []string

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.AIAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}

	switch c.MarketProvider {
	case MarketProviderAlphaVantage:
		if c.AlphaVantageKey == "" {
			missing = append(missing, "ALPHA_VANTAGE_API_KEY")
		}
	case MarketProviderAlpaca:
		if c.AlpacaKeyID == "" {
			missing = append(missing, "APCA_API_KEY_ID")
		}
		if c.AlpacaSecretKey == "" {
			missing = append(missing, "APCA_API_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unsupported MARKET_PROVIDER %q", c.MarketProvider)
	}

	if c.BucketName != "" && (c.AwsAccessKey == "" || c.AwsSecretKey == "") {
		missing = append(missing, "AWS_ACCESS_KEY/AWS_SECRET_KEY (required when BUCKET_NAME is set)")
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

// TopPerformerSymbols splits TOP_PERFORMERS into upper-cased tickers.
func (c *Config) TopPerformerSymbols() []string {
	var out []string
	for _, s := range strings.Split(c.TopPerformerTicker, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ArchiveEnabled reports whether uploaded articles are copied to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.BucketName != ""
}
