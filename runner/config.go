package runner

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/store"
)

// Config contains the configuration of a migration run.
type Config struct {
	DynamoRegion string
	// DynamoEndpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	DynamoEndpoint   string
	DynamoMaxRetries int
	Tables           store.TableConfig
	WritesPerSecond  float64
	PageSize         int64
	TracingEnabled   bool
}

// LoadConfig reads the configuration from the environment. Variables in a .env file in the working
// directory are loaded first, without overriding the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, xerrors.Errorf("loading .env: %w", err)
	}

	defaults := store.DefaultTableConfig()
	c := Config{
		DynamoRegion:   getEnvVarOrDefault("AWS_DYNAMO_REGION", "ap-northeast-1"),
		DynamoEndpoint: os.Getenv("AWS_DYNAMO_ENDPOINT"),
		Tables: store.TableConfig{
			Users:      getEnvVarOrDefault("DYNAMO_TABLE_USERS", defaults.Users),
			Reviews:    getEnvVarOrDefault("DYNAMO_TABLE_REVIEWS", defaults.Reviews),
			Businesses: getEnvVarOrDefault("DYNAMO_TABLE_BUSINESSES", defaults.Businesses),
		},
		TracingEnabled: os.Getenv("_TRACING_ENABLED") == "true",
	}

	var err error
	if c.DynamoMaxRetries, err = strconv.Atoi(getEnvVarOrDefault("DYNAMO_MAX_RETRIES", "4")); err != nil {
		return Config{}, xerrors.Errorf("DYNAMO_MAX_RETRIES: %w", err)
	}
	if c.WritesPerSecond, err = strconv.ParseFloat(getEnvVarOrDefault("WRITES_PER_SECOND", "25"), 64); err != nil {
		return Config{}, xerrors.Errorf("WRITES_PER_SECOND: %w", err)
	}
	if c.PageSize, err = strconv.ParseInt(getEnvVarOrDefault("DYNAMO_PAGE_SIZE", "0"), 10, 64); err != nil {
		return Config{}, xerrors.Errorf("DYNAMO_PAGE_SIZE: %w", err)
	}
	return c, nil
}

func getEnvVarOrDefault(envVarName, defaultIfEmpty string) string {
	value := os.Getenv(envVarName)
	if value == "" {
		value = defaultIfEmpty
	}

	return value
}
