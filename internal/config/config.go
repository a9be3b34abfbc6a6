package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName    string
	DatabaseURL    string
	RedisURL       string
	HTTPListenAddr string
	// MetricsListenAddr serves /metrics on its own listener when set.
	// Empty serves it on the API router.
	MetricsListenAddr string
	LogLevel          string
	CORSOrigins       []string
	DevMode           bool

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	OTPTTL            time.Duration
	OTPResendCooldown time.Duration
	OTPMaxAttempts    int

	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	RedisTLSCert       string
	RedisTLSKey        string
	RedisTLSCACert     string
	RedisTLSServerName string

	HealthPollInterval time.Duration
	// HealthTargets are extra HTTP endpoints probed by the health monitor,
	// keyed by component name.
	HealthTargets map[string]string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "admin-api"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DevMode:           getEnv("DEV_MODE", "") == "true",

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "saasadmin"),

		SMTPAddr:     getEnv("SMTP_ADDR", ""),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		RedisTLSCert:       getEnv("REDIS_TLS_CERT", ""),
		RedisTLSKey:        getEnv("REDIS_TLS_KEY", ""),
		RedisTLSCACert:     getEnv("REDIS_TLS_CA_CERT", ""),
		RedisTLSServerName: getEnv("REDIS_TLS_SERVER_NAME", ""),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPResendCooldown, err = getDuration("OTP_RESEND_COOLDOWN", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.HealthPollInterval, err = getDuration("HEALTH_POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.OTPMaxAttempts, err = getInt("OTP_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.HealthTargets, err = parseTargets(getEnv("HEALTH_TARGETS", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings required to serve the admin API are present.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.OTPMaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.HealthPollInterval < time.Second {
		return fmt.Errorf("HEALTH_POLL_INTERVAL must be at least 1s")
	}
	if c.S3Bucket != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_BUCKET is set")
	}
	return nil
}

// SMTPEnabled reports whether OTP mail goes out over SMTP rather than the log.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPAddr != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseTargets reads "name=url,name=url".
func parseTargets(s string) (map[string]string, error) {
	targets := map[string]string{}
	for _, entry := range splitList(s) {
		name, url, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("parse HEALTH_TARGETS: invalid entry %q", entry)
		}
		targets[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return targets, nil
}
