package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RateLimitConfig struct {
	Login Bucket `yaml:"login"`
}

type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// Token signing material. For HS* the secret alone is enough; for RS*/ES*
	// provide PEM key paths or a remote key-set URL.
	TokenAlgorithm          string `yaml:"tokenAlgorithm"`
	TokenSecret             string `yaml:"tokenSecret"`
	TokenSigningKeyFile     string `yaml:"tokenSigningKeyFile"`
	TokenVerifyKeyFile      string `yaml:"tokenVerifyKeyFile"`
	TokenJwksURL            string `yaml:"tokenJwksUrl"`
	TokenKeyID              string `yaml:"tokenKeyId"`
	TokenAudience           string `yaml:"tokenAudience"`
	TokenIssuer             string `yaml:"tokenIssuer"`
	AllowedClockSkewSeconds int    `yaml:"allowedClockSkewSeconds"`
	AccessTokenMinutes      int    `yaml:"accessTokenMinutes"`
	RefreshTokenHours       int    `yaml:"refreshTokenHours"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoadConfig reads the YAML file at filePath, applies environment overrides
// and fills defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty or
// missing file path, starting from a zero config.
func LoadConfigOptional(filePath string) (*Config, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			return LoadConfig(filePath)
		}
	}
	var c Config
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("TOKEN_ALGORITHM"); v != "" {
		c.TokenAlgorithm = v
	}
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		c.TokenSecret = v
	}
	if v := os.Getenv("TOKEN_SIGNING_KEY_FILE"); v != "" {
		c.TokenSigningKeyFile = v
	}
	if v := os.Getenv("TOKEN_VERIFY_KEY_FILE"); v != "" {
		c.TokenVerifyKeyFile = v
	}
	if v := os.Getenv("TOKEN_JWKS_URL"); v != "" {
		c.TokenJwksURL = v
	}
	if v := os.Getenv("TOKEN_KEY_ID"); v != "" {
		c.TokenKeyID = v
	}
	if v := os.Getenv("TOKEN_AUDIENCE"); v != "" {
		c.TokenAudience = v
	}
	if v := os.Getenv("TOKEN_ISSUER"); v != "" {
		c.TokenIssuer = v
	}
	if v := os.Getenv("ALLOWED_CLOCK_SKEW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AllowedClockSkewSeconds = n
		}
	}
	if v := os.Getenv("ACCESS_TOKEN_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AccessTokenMinutes = n
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RefreshTokenHours = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.TokenAlgorithm == "" {
		c.TokenAlgorithm = "HS256"
	}
	if c.AccessTokenMinutes <= 0 {
		c.AccessTokenMinutes = 10
	}
	if c.RefreshTokenHours <= 0 {
		c.RefreshTokenHours = 7 * 24
	}
}

// Audiences splits the comma-separated audience setting.
func (c *Config) Audiences() []string {
	if strings.TrimSpace(c.TokenAudience) == "" {
		return nil
	}
	parts := strings.Split(c.TokenAudience, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AccessLifetime returns the configured access token lifetime.
func (c *Config) AccessLifetime() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// RefreshLifetime returns the configured refresh token lifetime.
func (c *Config) RefreshLifetime() time.Duration {
	return time.Duration(c.RefreshTokenHours) * time.Hour
}

// Leeway returns the configured clock-skew tolerance.
func (c *Config) Leeway() time.Duration {
	return time.Duration(c.AllowedClockSkewSeconds) * time.Second
}

// Validate checks the token material early so misconfiguration fails at boot
// rather than at first use.
func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	symmetric := strings.HasPrefix(c.TokenAlgorithm, "HS")
	if symmetric {
		if strings.TrimSpace(c.TokenSecret) == "" {
			errs = append(errs, "tokenSecret is required for "+c.TokenAlgorithm)
		} else if len(c.TokenSecret) < 32 && !dev {
			errs = append(errs, "tokenSecret must be at least 32 bytes in non-dev")
		}
	} else {
		if c.TokenVerifyKeyFile == "" && c.TokenJwksURL == "" {
			errs = append(errs, "tokenVerifyKeyFile or tokenJwksUrl is required for "+c.TokenAlgorithm)
		}
		if c.TokenJwksURL != "" {
			u, err := url.Parse(c.TokenJwksURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, "tokenJwksUrl must be a valid http(s) URL")
			}
		}
	}
	if c.AllowedClockSkewSeconds < 0 {
		errs = append(errs, "allowedClockSkewSeconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
