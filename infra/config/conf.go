package config

import (
	"os"
	"strconv"
)

// TransactionType selects the default payment transaction mode.
type TransactionType string

const (
	// TransactionAuthorization authorizes only; funds are captured later.
	TransactionAuthorization TransactionType = "authorization"
	// TransactionSale authorizes and captures in a single request.
	TransactionSale TransactionType = "sale"
)

// Settings holds the gateway configuration. It is an explicit value passed
// to the client and processor at construction time; there is no ambient
// settings singleton.
type Settings struct {
	MerchantID  string
	SecurityKey string
	UseSandbox  bool

	// Feature flags.
	UseEmbeddedFields   bool
	UseCustomerVault    bool
	UseRecurringBilling bool

	// Webhook subscription issued at registration time.
	WebhookID     string
	WebhookSecret string

	TransactionType TransactionType

	// Additional fee charged on top of the order total, either fixed or a
	// percentage of the order total.
	AdditionalFee           float64
	AdditionalFeePercentage bool
}

// LoadSettings reads gateway settings from the environment.
func LoadSettings() Settings {
	transactionType := TransactionSale
	if GetEnv("QUALPAY_TRANSACTION_TYPE", "sale") == "authorization" {
		transactionType = TransactionAuthorization
	}

	return Settings{
		MerchantID:              GetEnv("QUALPAY_MERCHANT_ID", ""),
		SecurityKey:             GetEnv("QUALPAY_SECURITY_KEY", ""),
		UseSandbox:              GetBoolEnv("QUALPAY_USE_SANDBOX", true),
		UseEmbeddedFields:       GetBoolEnv("QUALPAY_USE_EMBEDDED_FIELDS", false),
		UseCustomerVault:        GetBoolEnv("QUALPAY_USE_CUSTOMER_VAULT", false),
		UseRecurringBilling:     GetBoolEnv("QUALPAY_USE_RECURRING_BILLING", false),
		WebhookID:               GetEnv("QUALPAY_WEBHOOK_ID", ""),
		WebhookSecret:           GetEnv("QUALPAY_WEBHOOK_SECRET", ""),
		TransactionType:         transactionType,
		AdditionalFee:           GetFloatEnv("QUALPAY_ADDITIONAL_FEE", 0),
		AdditionalFeePercentage: GetBoolEnv("QUALPAY_ADDITIONAL_FEE_PERCENTAGE", false),
	}
}

// AppConfig represents the webhook server configuration.
type AppConfig struct {
	Port             string
	DBPath           string
	OpenSearchURL    string
	OpenSearchUser   string
	OpenSearchPass   string
	EnableLogging    bool
	LoggingLevel     string
	LogRetentionDays int
}

var appConfigInstance *AppConfig

// GetAppConfig returns the application configuration.
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:             GetEnv("APP_PORT", "9999"),
			DBPath:           GetEnv("DB_PATH", "data/qualpay.db"),
			OpenSearchURL:    GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser:   GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass:   GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:    GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:     GetEnv("LOGGING_LEVEL", "info"),
			LogRetentionDays: GetIntEnv("LOG_RETENTION_DAYS", 30),
		}
	}
	return appConfigInstance
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value.
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value.
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetFloatEnv returns the float value of an environment variable or a default value.
func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
