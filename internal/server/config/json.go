package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/dmitrijs2005/sessionkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "1s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC     string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	Storage              string         `json:"storage"`
	DatabaseDSN          string         `json:"database_dsn"`
	DatabaseMaxConns     int32          `json:"database_max_conns"`
	SecretKey            string         `json:"secret_key"`
	LogLevel             string         `json:"log_level"`
	OAuthRedirectBaseURL string         `json:"oauth_redirect_base_url"`
	GoogleClientID       string         `json:"google_client_id"`
	GoogleClientSecret   string         `json:"google_client_secret"`
	GoogleIssuer         string         `json:"google_issuer"`
	ClientRedirectURL    string         `json:"client_redirect_url"`
	BillingBaseURL       string         `json:"billing_base_url"`
	BillingAPIKey        string         `json:"billing_api_key"`
	BillingTimeout       timex.Duration `json:"billing_timeout"`
	BillingFailOpen      bool           `json:"billing_fail_open"`
	RedisAddr            string         `json:"redis_addr"`
	RedisPassword        string         `json:"redis_password"`
	RedisDB              int            `json:"redis_db"`
	SubscriptionCacheTTL timex.Duration `json:"subscription_cache_ttl"`
	ReclaimInterval      timex.Duration `json:"reclaim_interval"`
	ReclaimTimeout       timex.Duration `json:"reclaim_timeout"`
	CORSAllowedOrigins   []string       `json:"cors_allowed_origins"`
	LoginRateLimit       float64        `json:"login_rate_limit"`
	LoginRateBurst       int            `json:"login_rate_burst"`
}

// parseJson overlays the file named by -c / -config onto config. Keys absent
// from the file keep their current values. An unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	fromJson(c, config)
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:     c.EndpointAddrGRPC,
		EndpointAddrHTTP:     c.EndpointAddrHTTP,
		Storage:              c.Storage,
		DatabaseDSN:          c.DatabaseDSN,
		DatabaseMaxConns:     c.DatabaseMaxConns,
		SecretKey:            c.SecretKey,
		LogLevel:             c.LogLevel,
		OAuthRedirectBaseURL: c.OAuthRedirectBaseURL,
		GoogleClientID:       c.GoogleClientID,
		GoogleClientSecret:   c.GoogleClientSecret,
		GoogleIssuer:         c.GoogleIssuer,
		ClientRedirectURL:    c.ClientRedirectURL,
		BillingBaseURL:       c.BillingBaseURL,
		BillingAPIKey:        c.BillingAPIKey,
		BillingTimeout:       timex.Duration{Duration: c.BillingTimeout},
		BillingFailOpen:      c.BillingFailOpen,
		RedisAddr:            c.RedisAddr,
		RedisPassword:        c.RedisPassword,
		RedisDB:              c.RedisDB,
		SubscriptionCacheTTL: timex.Duration{Duration: c.SubscriptionCacheTTL},
		ReclaimInterval:      timex.Duration{Duration: c.ReclaimInterval},
		ReclaimTimeout:       timex.Duration{Duration: c.ReclaimTimeout},
		CORSAllowedOrigins:   c.CORSAllowedOrigins,
		LoginRateLimit:       c.LoginRateLimit,
		LoginRateBurst:       c.LoginRateBurst,
	}
}

func fromJson(j *JsonConfig, c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.Storage = j.Storage
	c.DatabaseDSN = j.DatabaseDSN
	c.DatabaseMaxConns = j.DatabaseMaxConns
	c.SecretKey = j.SecretKey
	c.LogLevel = j.LogLevel
	c.OAuthRedirectBaseURL = j.OAuthRedirectBaseURL
	c.GoogleClientID = j.GoogleClientID
	c.GoogleClientSecret = j.GoogleClientSecret
	c.GoogleIssuer = j.GoogleIssuer
	c.ClientRedirectURL = j.ClientRedirectURL
	c.BillingBaseURL = j.BillingBaseURL
	c.BillingAPIKey = j.BillingAPIKey
	c.BillingTimeout = time.Duration(j.BillingTimeout.Duration)
	c.BillingFailOpen = j.BillingFailOpen
	c.RedisAddr = j.RedisAddr
	c.RedisPassword = j.RedisPassword
	c.RedisDB = j.RedisDB
	c.SubscriptionCacheTTL = time.Duration(j.SubscriptionCacheTTL.Duration)
	c.ReclaimInterval = time.Duration(j.ReclaimInterval.Duration)
	c.ReclaimTimeout = time.Duration(j.ReclaimTimeout.Duration)
	c.CORSAllowedOrigins = j.CORSAllowedOrigins
	c.LoginRateLimit = j.LoginRateLimit
	c.LoginRateBurst = j.LoginRateBurst
}
