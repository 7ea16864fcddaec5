package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

const defaultPort = "8080"
const defaultNYTBaseURL = "https://www.nytimes.com/"

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	nytToken               string
	nytBaseURL             string
	redisURL               string
	port                   string
	gcpProjectID           string
	corsDomainSuffixes     []string
	trustedProxyHops       int
	env                    environment
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// NYTToken is the session cookie used to fetch puzzle metadata
func (c *Config) NYTToken() string {
	return c.nytToken
}

func (c *Config) NYTBaseURL() string {
	return c.nytBaseURL
}

// RedisURL is empty when the caches should be kept in process
func (c *Config) RedisURL() string {
	return c.redisURL
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) GCPProjectID() string {
	return c.gcpProjectID
}

func (c *Config) CORSDomainSuffixes() []string {
	return append([]string{}, c.corsDomainSuffixes...)
}

// TrustedProxyHops is the number of proxies in front of the server that append to X-Forwarded-For
func (c *Config) TrustedProxyHops() int {
	return c.trustedProxyHops
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, nytBaseURL: %s, redis: %t, corsDomainSuffixes: %v, trustedProxyHops: %d, ...}",
		string(c.env), c.port, c.nytBaseURL, c.redisURL != "", c.corsDomainSuffixes, c.trustedProxyHops,
	)
}

// LoadDotEnv loads variables from the given .env file if it exists
//
// Variables already present in the environment take precedence.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	values := []string{}
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("MINISTATS_ENVIRONMENT")
	if !ok {
		return missingKey("MINISTATS_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("MINISTATS_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	nytToken := os.Getenv("NYT_TOKEN")
	redisURL := os.Getenv("REDIS_URL")
	gcpProjectID := os.Getenv("GCP_PROJECT_ID")
	corsDomainSuffixes := splitList(os.Getenv("CORS_DOMAIN_SUFFIXES"))

	nytBaseURL := os.Getenv("NYT_BASE_URL")
	if nytBaseURL == "" {
		nytBaseURL = defaultNYTBaseURL
	}
	parsedBaseURL, err := url.Parse(nytBaseURL)
	if err != nil || parsedBaseURL.Scheme == "" || parsedBaseURL.Host == "" {
		return invalidValue("NYT_BASE_URL", nytBaseURL)
	}
	if !strings.HasSuffix(nytBaseURL, "/") {
		nytBaseURL += "/"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if portNumber, err := strconv.Atoi(port); err != nil || portNumber <= 0 || portNumber > 65535 {
		return invalidValue("PORT", port)
	}

	// Deployed behind the Cloud Run front end, which appends the client address
	trustedProxyHops := 1
	if env == development {
		trustedProxyHops = 0
	}
	if rawHops := os.Getenv("TRUSTED_PROXY_HOPS"); rawHops != "" {
		hops, err := strconv.Atoi(rawHops)
		if err != nil || hops < 0 {
			return invalidValue("TRUSTED_PROXY_HOPS", rawHops)
		}
		trustedProxyHops = hops
	}

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if gcpProjectID == "" {
			return missingKey("GCP_PROJECT_ID")
		}
		if len(corsDomainSuffixes) == 0 {
			return missingKey("CORS_DOMAIN_SUFFIXES")
		}
	}

	return Config{
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		nytToken:               nytToken,
		nytBaseURL:             nytBaseURL,
		redisURL:               redisURL,
		port:                   port,
		gcpProjectID:           gcpProjectID,
		corsDomainSuffixes:     corsDomainSuffixes,
		trustedProxyHops:       trustedProxyHops,
		env:                    env,
	}, nil
}
