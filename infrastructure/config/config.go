package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from built-in
// defaults, then the optional YAML file named by CONFIG_FILE, then the
// environment.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"serverAddress"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion   string `yaml:"awsRegion"`
	AWSEndpoint string `yaml:"awsEndpoint"`

	Tables   TableConfig    `yaml:"tables"`
	Indexes  IndexConfig    `yaml:"indexes"`
	EventBus EventBusConfig `yaml:"eventBus"`
	Auth     AuthConfig     `yaml:"auth"`
	Outbox   OutboxConfig   `yaml:"outbox"`

	// Storage
	BucketName   string        `yaml:"bucketName"`
	UploadURLTTL time.Duration `yaml:"uploadUrlTtl"`

	// WebSocket configuration
	WebSocketEndpoint string `yaml:"webSocketEndpoint"`

	PublishTimeout  time.Duration `yaml:"publishTimeout"`
	DefaultPageSize int           `yaml:"defaultPageSize"`

	// Logging and metrics
	LogLevel         string `yaml:"logLevel"`
	MetricsNamespace string `yaml:"metricsNamespace"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enableMetrics"`
	EnableTracing  bool     `yaml:"enableTracing"`
	EnableCORS     bool     `yaml:"enableCors"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// TableConfig names the DynamoDB tables.
type TableConfig struct {
	Trips         string `yaml:"trips"`
	Comments      string `yaml:"comments"`
	Groups        string `yaml:"groups"`
	Invitations   string `yaml:"invitations"`
	Posts         string `yaml:"posts"`
	Users         string `yaml:"users"`
	Connections   string `yaml:"connections"`
	FavoriteTrips string `yaml:"favoriteTrips"`
	Categories    string `yaml:"categories"`
	Outbox        string `yaml:"outbox"`
	Idempotency   string `yaml:"idempotency"`
}

// IndexConfig names the secondary indexes.
type IndexConfig struct {
	TripsByDate       string `yaml:"tripsByDate"`
	TripsByCreator    string `yaml:"tripsByCreator"`
	CommentsByTrip    string `yaml:"commentsByTrip"`
	InvitationsByUser string `yaml:"invitationsByUser"`
	PostsByGroup      string `yaml:"postsByGroup"`
	ConnectionsGroup  string `yaml:"connectionsByGroup"`
	CategoriesByName  string `yaml:"categoriesByName"`
	CategoriesSorted  string `yaml:"categoriesSorted"`
	OutboxByStatus    string `yaml:"outboxByStatus"`
}

// EventBusConfig describes where cascade events are published.
type EventBusConfig struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// AuthConfig configures token validation.
type AuthConfig struct {
	JWTSecret   string   `yaml:"jwtSecret"`
	JWTIssuer   string   `yaml:"jwtIssuer"`
	JWTAudience []string `yaml:"jwtAudience"`
	JWKSURL     string   `yaml:"jwksUrl"`
	AdminGroup  string   `yaml:"adminGroup"`
}

// OutboxConfig tunes the outbox dispatcher.
type OutboxConfig struct {
	BatchSize    int           `yaml:"batchSize"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	BaseBackoff  time.Duration `yaml:"baseBackoff"`
	MaxBackoff   time.Duration `yaml:"maxBackoff"`
	GracePeriod  time.Duration `yaml:"gracePeriod"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		AWSRegion:     "eu-central-1",
		Tables: TableConfig{
			Trips:         "TripiaTrips",
			Comments:      "TripiaComments",
			Groups:        "TripiaGroups",
			Invitations:   "TripiaInvitations",
			Posts:         "TripiaPosts",
			Users:         "TripiaUsers",
			Connections:   "TripiaConnections",
			FavoriteTrips: "TripiaFavoriteTrips",
			Categories:    "TripiaCategories",
			Outbox:        "TripiaOutbox",
			Idempotency:   "TripiaIdempotency",
		},
		Indexes: IndexConfig{
			TripsByDate:       "dateSort",
			TripsByCreator:    "createdBy",
			CommentsByTrip:    "trip",
			InvitationsByUser: "invitee",
			PostsByGroup:      "groupIdIndex",
			ConnectionsGroup:  "groupIdIndex",
			CategoriesByName:  "name",
			CategoriesSorted:  "nameSort",
			OutboxByStatus:    "StatusIndex",
		},
		EventBus: EventBusConfig{
			Name:   "TripiaEventBus",
			Source: "tripia.cascade",
		},
		Auth: AuthConfig{
			JWTIssuer:  "tripia-local",
			AdminGroup: "admin",
		},
		Outbox: OutboxConfig{
			BatchSize:    50,
			MaxAttempts:  5,
			BaseBackoff:  5 * time.Second,
			MaxBackoff:   15 * time.Minute,
			GracePeriod:  30 * time.Second,
			PollInterval: 30 * time.Second,
		},
		UploadURLTTL:     5 * time.Minute,
		PublishTimeout:   2 * time.Second,
		DefaultPageSize:  3,
		LogLevel:         "info",
		MetricsNamespace: "Tripia",
		EnableCORS:       true,
		AllowedOrigins:   []string{"*"},
	}
}

// LoadConfig loads configuration from the optional config file and the
// environment.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", getEnv("REGION", c.AWSRegion))
	c.AWSEndpoint = getEnv("AWS_ENDPOINT_URL", c.AWSEndpoint)

	c.Tables.Trips = getEnv("TRIPS_TABLE_NAME", c.Tables.Trips)
	c.Tables.Comments = getEnv("COMMENTS_TABLE_NAME", c.Tables.Comments)
	c.Tables.Groups = getEnv("GROUPS_TABLE_NAME", c.Tables.Groups)
	c.Tables.Invitations = getEnv("INVITATIONS_TABLE_NAME", c.Tables.Invitations)
	c.Tables.Posts = getEnv("POSTS_TABLE_NAME", c.Tables.Posts)
	c.Tables.Users = getEnv("USERS_TABLE_NAME", c.Tables.Users)
	c.Tables.Connections = getEnv("CONNECTIONS_TABLE_NAME", c.Tables.Connections)
	c.Tables.FavoriteTrips = getEnv("FAVORITE_TRIPS_TABLE_NAME", c.Tables.FavoriteTrips)
	c.Tables.Categories = getEnv("CATEGORIES_TABLE_NAME", c.Tables.Categories)
	c.Tables.Outbox = getEnv("OUTBOX_TABLE_NAME", c.Tables.Outbox)
	c.Tables.Idempotency = getEnv("IDEMPOTENCY_TABLE_NAME", c.Tables.Idempotency)

	c.Indexes.TripsByDate = getEnv("TRIPS_DATE_INDEX", c.Indexes.TripsByDate)
	c.Indexes.TripsByCreator = getEnv("TRIPS_CREATOR_INDEX", c.Indexes.TripsByCreator)
	c.Indexes.CommentsByTrip = getEnv("COMMENTS_TRIP_INDEX", c.Indexes.CommentsByTrip)
	c.Indexes.InvitationsByUser = getEnv("INVITATIONS_INVITEE_INDEX", c.Indexes.InvitationsByUser)
	c.Indexes.PostsByGroup = getEnv("POSTS_GROUP_INDEX", c.Indexes.PostsByGroup)
	c.Indexes.ConnectionsGroup = getEnv("CONNECTIONS_GROUP_INDEX", c.Indexes.ConnectionsGroup)
	c.Indexes.CategoriesByName = getEnv("CATEGORIES_NAME_INDEX", c.Indexes.CategoriesByName)
	c.Indexes.CategoriesSorted = getEnv("CATEGORIES_SORT_INDEX", c.Indexes.CategoriesSorted)
	c.Indexes.OutboxByStatus = getEnv("OUTBOX_STATUS_INDEX", c.Indexes.OutboxByStatus)

	c.EventBus.Name = getEnv("EVENT_BUS_NAME", c.EventBus.Name)
	c.EventBus.Source = getEnv("EVENT_BUS_SOURCE", c.EventBus.Source)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = getEnv("JWT_ISSUER", c.Auth.JWTIssuer)
	c.Auth.JWTAudience = getEnvList("JWT_AUDIENCE", c.Auth.JWTAudience)
	c.Auth.JWKSURL = getEnv("JWKS_URL", c.Auth.JWKSURL)
	c.Auth.AdminGroup = getEnv("ADMIN_GROUP", c.Auth.AdminGroup)

	c.Outbox.BatchSize = getEnvInt("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	c.Outbox.MaxAttempts = getEnvInt("OUTBOX_MAX_ATTEMPTS", c.Outbox.MaxAttempts)
	c.Outbox.BaseBackoff = getEnvDuration("OUTBOX_BASE_BACKOFF", c.Outbox.BaseBackoff)
	c.Outbox.MaxBackoff = getEnvDuration("OUTBOX_MAX_BACKOFF", c.Outbox.MaxBackoff)
	c.Outbox.GracePeriod = getEnvDuration("OUTBOX_GRACE_PERIOD", c.Outbox.GracePeriod)
	c.Outbox.PollInterval = getEnvDuration("OUTBOX_POLL_INTERVAL", c.Outbox.PollInterval)

	c.BucketName = getEnv("BUCKET_NAME", c.BucketName)
	c.UploadURLTTL = getEnvDuration("UPLOAD_URL_TTL", c.UploadURLTTL)
	c.WebSocketEndpoint = getEnv("WEBSOCKET_API_ENDPOINT", c.WebSocketEndpoint)
	c.PublishTimeout = getEnvDuration("PUBLISH_TIMEOUT", c.PublishTimeout)
	c.DefaultPageSize = getEnvInt("DEFAULT_PAGE_SIZE", c.DefaultPageSize)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be positive")
	}

	if c.IsProduction() {
		if c.Auth.JWKSURL == "" && c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWKS_URL or JWT_SECRET is required in production")
		}
		if c.EventBus.Name == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME is required")
		}
		if c.Tables.Outbox == "" {
			return fmt.Errorf("OUTBOX_TABLE_NAME is required")
		}
	}

	return nil
}

// MetricsNamespaceForEnv returns the CloudWatch namespace, suffixed with the
// environment.
func (c *Config) MetricsNamespaceForEnv() string {
	return fmt.Sprintf("%s/%s", c.MetricsNamespace, c.Environment)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
