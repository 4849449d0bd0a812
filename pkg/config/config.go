package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Application settings
type Config struct {
	Server      ServerConfig
	Logging     LoggingConfig
	Wildberries WildberriesConfig
	Report      ReportConfig
	Export      ExportConfig
}

// Server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// Upstream API settings
type WildberriesConfig struct {
	StatisticsURL string
	AdvertURL     string
	AnalyticsURL  string
	ContentURL    string

	HTTPTimeout        time.Duration
	RateLimitPerSecond int
	MaxRetries         int
	RetryBackoff       time.Duration

	// SKU resolution
	SKUBatchSize     int
	SKUBatchDelay    time.Duration
	RateLimitRetries int
	RateLimitBackoff time.Duration
	RateLimitCeiling time.Duration

	// Async report tasks (storage, acceptance)
	TaskPollInterval time.Duration
	TaskPollAttempts int
}

type ReportConfig struct {
	CreditBodyFallback     float64
	CreditInterestFallback float64
	TaxRatePercent         float64
	PrevBufferMinLines     int
	MaxStoredReports       int
}

type ExportConfig struct {
	SinkURL    string
	SinkSecret string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

// Load reads settings from the environment and, when present, from a
// config.env or .env file in the working directory.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.SetConfigName(".env")
	_ = v.MergeInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getString(v, "PORT", "8080"),
			RequestTimeout: getDuration(v, "REQUEST_TIMEOUT", "5m"),
		},
		Wildberries: WildberriesConfig{
			StatisticsURL:      getString(v, "WB_STATISTICS_URL", "https://statistics-api.wildberries.ru"),
			AdvertURL:          getString(v, "WB_ADVERT_URL", "https://advert-api.wildberries.ru"),
			AnalyticsURL:       getString(v, "WB_ANALYTICS_URL", "https://seller-analytics-api.wildberries.ru"),
			ContentURL:         getString(v, "WB_CONTENT_URL", "https://content-api.wildberries.ru"),
			HTTPTimeout:        getDuration(v, "WB_HTTP_TIMEOUT", "60s"),
			RateLimitPerSecond: getInt(v, "WB_RATE_LIMIT_PER_SECOND", 3),
			MaxRetries:         getInt(v, "WB_MAX_RETRIES", 3),
			RetryBackoff:       getDuration(v, "WB_RETRY_BACKOFF", "2s"),
			SKUBatchSize:       getInt(v, "WB_SKU_BATCH_SIZE", 50),
			SKUBatchDelay:      getDuration(v, "WB_SKU_BATCH_DELAY", "1s"),
			RateLimitRetries:   getInt(v, "WB_RATE_LIMIT_RETRIES", 5),
			RateLimitBackoff:   getDuration(v, "WB_RATE_LIMIT_BACKOFF", "2s"),
			RateLimitCeiling:   getDuration(v, "WB_RATE_LIMIT_CEILING", "60s"),
			TaskPollInterval:   getDuration(v, "WB_TASK_POLL_INTERVAL", "5s"),
			TaskPollAttempts:   getInt(v, "WB_TASK_POLL_ATTEMPTS", 60),
		},
		Report: ReportConfig{
			CreditBodyFallback:     getFloat(v, "REPORT_CREDIT_BODY_FALLBACK", 0),
			CreditInterestFallback: getFloat(v, "REPORT_CREDIT_INTEREST_FALLBACK", 0),
			TaxRatePercent:         getFloat(v, "REPORT_TAX_RATE_PERCENT", 6),
			PrevBufferMinLines:     getInt(v, "REPORT_PREV_BUFFER_MIN_LINES", 1),
			MaxStoredReports:       getInt(v, "REPORT_MAX_STORED", 50),
		},
		Export: ExportConfig{
			SinkURL:    getString(v, "SINK_URL", ""),
			SinkSecret: getString(v, "SINK_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}
}

func getString(v *viper.Viper, key, defaultValue string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	if !v.IsSet(key) {
		return defaultValue
	}
	if intValue, err := cast.ToIntE(v.Get(key)); err == nil {
		return intValue
	}
	return defaultValue
}

func getFloat(v *viper.Viper, key string, defaultValue float64) float64 {
	if !v.IsSet(key) {
		return defaultValue
	}
	if floatValue, err := cast.ToFloat64E(v.Get(key)); err == nil {
		return floatValue
	}
	return defaultValue
}

func getDuration(v *viper.Viper, key, defaultValue string) time.Duration {
	if value := v.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
