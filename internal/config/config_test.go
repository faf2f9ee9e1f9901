package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "BASE_PATH", "CLIENT_URL", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_LOG_LEVEL",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"REDIS_USER_CACHE_TTL",
	"WORKER_ENABLED", "WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL", "WORKER_QUEUES", "REMINDER_SCHEDULE",
	"JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST", "ADMIN_INVITE_TOKEN",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"UPLOAD_DIR", "UPLOAD_MAX_BYTES", "LOG_LEVEL", "LOG_PRETTY",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(allEnvVars)
	setEnvVars(vars)
	t.Cleanup(func() { clearEnvVars(allEnvVars) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Port != "8000" {
		t.Errorf("Expected default port '8000', got %s", config.Server.Port)
	}

	if config.Server.BasePath != "/api" {
		t.Errorf("Expected default base path '/api', got %s", config.Server.BasePath)
	}

	if config.Server.ClientURL != "*" {
		t.Errorf("Expected default client URL '*', got %s", config.Server.ClientURL)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}

	if config.Worker.Enabled {
		t.Error("Expected worker to be disabled by default")
	}

	if len(config.Worker.Queues) != 2 {
		t.Errorf("Expected 2 default queues, got %d", len(config.Worker.Queues))
	}

	if config.Auth.TokenTTL != 30*24*time.Hour {
		t.Errorf("Expected default token TTL of 30 days, got %v", config.Auth.TokenTTL)
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Auth.AdminInviteToken != "" {
		t.Errorf("Expected no admin invite token by default, got %q", config.Auth.AdminInviteToken)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if config.Storage.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir 'uploads', got %s", config.Storage.UploadDir)
	}

	if !config.Log.Pretty {
		t.Error("Expected pretty logging outside production")
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	withEnv(t, map[string]string{
		"PORT":               "9000",
		"ENVIRONMENT":        "production",
		"CLIENT_URL":         "https://tasks.example.com",
		"DB_DRIVER":          "MySQL",
		"DB_HOST":            "db.example.com",
		"DB_PORT":            "3306",
		"DB_USER":            "app_user",
		"DB_PASSWORD":        "secure_password",
		"DB_NAME":            "production_db",
		"REDIS_ENABLED":      "true",
		"REDIS_HOST":         "redis.example.com",
		"WORKER_ENABLED":     "true",
		"WORKER_CONCURRENCY": "8",
		"WORKER_QUEUES":      "reminders, high ,",
		"JWT_SECRET":         "super-secret-key",
		"TOKEN_TTL":          "48h",
		"ADMIN_INVITE_TOKEN": "let-me-in",
		"RATE_LIMIT_ENABLED": "false",
		"READ_TIMEOUT":       "45s",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.Server.Port != "9000" {
		t.Errorf("Expected port '9000', got %s", config.Server.Port)
	}

	if config.Server.ClientURL != "https://tasks.example.com" {
		t.Errorf("Unexpected client URL %s", config.Server.ClientURL)
	}

	if config.Database.Driver != "mysql" {
		t.Errorf("Expected driver to be lower-cased to 'mysql', got %s", config.Database.Driver)
	}

	if !config.Redis.Enabled || !config.Worker.Enabled {
		t.Error("Expected Redis and worker to be enabled")
	}

	if config.Worker.Concurrency != 8 {
		t.Errorf("Expected worker concurrency 8, got %d", config.Worker.Concurrency)
	}

	if len(config.Worker.Queues) != 2 || config.Worker.Queues[1] != "high" {
		t.Errorf("Expected trimmed queue list [reminders high], got %v", config.Worker.Queues)
	}

	if config.Auth.TokenTTL != 48*time.Hour {
		t.Errorf("Expected token TTL 48h, got %v", config.Auth.TokenTTL)
	}

	if config.Auth.AdminInviteToken != "let-me-in" {
		t.Errorf("Expected invite token to be loaded, got %q", config.Auth.AdminInviteToken)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}

	if config.Log.Pretty {
		t.Error("Expected JSON logging in production")
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for missing database password in production")
	}

	if err.Error() != "database password is required in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_ProductionSQLiteNeedsNoPassword(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "secure-jwt-secret",
		"DB_DRIVER":   "sqlite",
	})

	if _, err := LoadConfig(); err != nil {
		t.Errorf("Expected sqlite to load without a password, got: %v", err)
	}
}

func TestLoadConfig_ProductionJWTValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "secure-db-password",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for default JWT secret in production")
	}

	if err.Error() != "JWT secret must be set in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	withEnv(t, map[string]string{"DB_DRIVER": "oracle"})

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestLoadConfig_WorkerNeedsRedis(t *testing.T) {
	withEnv(t, map[string]string{"WORKER_ENABLED": "true"})

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error when the worker is enabled without Redis")
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	tests := []struct {
		name     string
		database DatabaseConfig
		expected string
	}{
		{
			name: "postgres",
			database: DatabaseConfig{
				Driver: "postgres", Host: "localhost", Port: "5432",
				User: "testuser", Password: "testpass", Name: "testdb", SSLMode: "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "mysql",
			database: DatabaseConfig{
				Driver: "mysql", Host: "db", Port: "3306",
				User: "root", Password: "pw", Name: "tasks",
			},
			expected: "root:pw@tcp(db:3306)/tasks?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:     "sqlite",
			database: DatabaseConfig{Driver: "sqlite", Path: "/tmp/tasks.db"},
			expected: "/tmp/tasks.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Database: tt.database}
			if actual := config.GetDatabaseDSN(); actual != tt.expected {
				t.Errorf("Expected DSN '%s', got '%s'", tt.expected, actual)
			}
		})
	}
}

func TestConfig_GetRedisAddr(t *testing.T) {
	config := &Config{
		Redis: RedisConfig{
			Host: "redis.example.com",
			Port: "6380",
		},
	}

	expected := "redis.example.com:6380"
	if actual := config.GetRedisAddr(); actual != expected {
		t.Errorf("Expected Redis addr '%s', got '%s'", expected, actual)
	}
}

func TestConfig_GetServerAddr(t *testing.T) {
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "9000",
		},
	}

	expected := "0.0.0.0:9000"
	if actual := config.GetServerAddr(); actual != expected {
		t.Errorf("Expected server addr '%s', got '%s'", expected, actual)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{
			Server: ServerConfig{
				Environment: test.environment,
			},
		}

		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	defaultValue := 42

	os.Unsetenv(key)
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d, got %d", defaultValue, result)
	}

	os.Setenv(key, "100")
	defer os.Unsetenv(key)

	if result := getEnvAsInt(key, defaultValue); result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	os.Setenv(key, "not-a-number")
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d for invalid int, got %d", defaultValue, result)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second

	os.Unsetenv(key)
	if result := getEnvAsDuration(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	os.Setenv(key, "2m")
	defer os.Unsetenv(key)

	if result := getEnvAsDuration(key, defaultValue); result != 2*time.Minute {
		t.Errorf("Expected 2m, got %v", result)
	}

	os.Setenv(key, "soon")
	if result := getEnvAsDuration(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value for invalid duration, got %v", result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	defaultValue := []string{"a"}

	os.Setenv(key, " , ")
	defer os.Unsetenv(key)

	if result := getEnvAsList(key, defaultValue); len(result) != 1 || result[0] != "a" {
		t.Errorf("Expected default list for blank entries, got %v", result)
	}
}
