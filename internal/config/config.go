package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"Server"`
	Database DatabaseConfig `mapstructure:"Database"`
	Google   GoogleConfig   `mapstructure:"Google"`
	Redis    RedisConfig    `mapstructure:"Redis"`
	S3       S3Config       `mapstructure:"S3"`
	Auth     AuthConfig     `mapstructure:"Auth"`
	Log      LogConfig      `mapstructure:"Log"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"Port"`
	GRPCPort       string        `mapstructure:"GRPCPort"`
	MaxUploadBytes int64         `mapstructure:"MaxUploadBytes"`
	RequestTimeout time.Duration `mapstructure:"RequestTimeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"Host"`
	Port     string `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	Name     string `mapstructure:"Name"`
	SSLMode  string `mapstructure:"SSLMode"`
}

// GoogleConfig - OAuth-клиент Google, общий для Drive и YouTube
type GoogleConfig struct {
	ClientID            string `mapstructure:"ClientID"`
	ClientSecret        string `mapstructure:"ClientSecret"`
	DriveRedirectURL    string `mapstructure:"DriveRedirectURL"`
	YouTubeRedirectURL  string `mapstructure:"YouTubeRedirectURL"`
	RefreshToken        string `mapstructure:"RefreshToken"`
	DriveRootFolderName string `mapstructure:"DriveRootFolderName"`
	DriveRequestsPerSec int    `mapstructure:"DriveRequestsPerSec"`

	// TokenRefreshSchedule - cron-выражение для прогрева токена Drive
	TokenRefreshSchedule string `mapstructure:"TokenRefreshSchedule"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"Addr"`
	Password string `mapstructure:"Password"`
	DB       int    `mapstructure:"DB"`
}

type S3Config struct {
	AccessKeyID     string `mapstructure:"AccessKeyID"`
	SecretAccessKey string `mapstructure:"SecretAccessKey"`
	Bucket          string `mapstructure:"Bucket"`
	Endpoint        string `mapstructure:"Endpoint"`
	Region          string `mapstructure:"Region"`
}

type AuthConfig struct {
	ValidationURL string  `mapstructure:"ValidationURL"`
	RateLimit     float64 `mapstructure:"RateLimit"`
	RateBurst     int     `mapstructure:"RateBurst"`
}

type LogConfig struct {
	Level      string `mapstructure:"Level"`
	Format     string `mapstructure:"Format"`
	Output     string `mapstructure:"Output"`
	Path       string `mapstructure:"Path"`
	MaxSize    int    `mapstructure:"MaxSize"`
	MaxBackups int    `mapstructure:"MaxBackups"`
	MaxAge     int    `mapstructure:"MaxAge"`
}

var envBindings = map[string]string{
	"Server.Port":                 "HTTP_PORT",
	"Server.GRPCPort":             "GRPC_PORT",
	"Server.MaxUploadBytes":       "MAX_UPLOAD_BYTES",
	"Server.RequestTimeout":       "REQUEST_TIMEOUT",
	"Database.Host":               "DATABASE_HOST",
	"Database.Port":               "DATABASE_PORT",
	"Database.User":               "DATABASE_USER",
	"Database.Password":           "DATABASE_PASSWORD",
	"Database.Name":               "DATABASE_NAME",
	"Database.SSLMode":            "DATABASE_SSLMODE",
	"Google.ClientID":             "GOOGLE_CLIENT_ID",
	"Google.ClientSecret":         "GOOGLE_CLIENT_SECRET",
	"Google.DriveRedirectURL":     "GOOGLE_REDIRECT_URI",
	"Google.YouTubeRedirectURL":   "YOUTUBE_REDIRECT_URI",
	"Google.RefreshToken":         "GOOGLE_REFRESH_TOKEN",
	"Google.DriveRootFolderName":  "DRIVE_ROOT_FOLDER_NAME",
	"Google.DriveRequestsPerSec":  "DRIVE_REQUESTS_PER_SEC",
	"Google.TokenRefreshSchedule": "DRIVE_TOKEN_REFRESH_SCHEDULE",
	"Redis.Addr":                  "REDIS_ADDR",
	"Redis.Password":              "REDIS_PASSWORD",
	"Redis.DB":                    "REDIS_DB",
	"S3.AccessKeyID":              "S3_ACCESS_KEY_ID",
	"S3.SecretAccessKey":          "S3_SECRET_ACCESS_KEY",
	"S3.Bucket":                   "S3_BUCKET",
	"S3.Endpoint":                 "S3_ENDPOINT",
	"S3.Region":                   "S3_REGION",
	"Auth.ValidationURL":          "ACCESS_TOKEN_VALIDATION_URL",
	"Auth.RateLimit":              "RATE_LIMIT_PER_SEC",
	"Auth.RateBurst":              "RATE_LIMIT_BURST",
	"Log.Level":                   "LOG_LEVEL",
	"Log.Format":                  "LOG_FORMAT",
	"Log.Output":                  "LOG_OUTPUT",
	"Log.Path":                    "LOG_PATH",
	"Log.MaxSize":                 "LOG_MAX_SIZE",
	"Log.MaxBackups":              "LOG_MAX_BACKUPS",
	"Log.MaxAge":                  "LOG_MAX_AGE",
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	// Устанавливаем файл конфигурации
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Привязываем переменные окружения
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Читаем конфигурацию из файла
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// В .env-файле ключи плоские (DATABASE_HOST=...), подтягиваем их напрямую
	for key, env := range envBindings {
		if !v.IsSet(key) && v.IsSet(env) {
			v.Set(key, v.Get(env))
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "2525"
	}
	if c.Server.GRPCPort == "" {
		c.Server.GRPCPort = "50051"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 2 << 30 // 2GB
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Minute
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Google.DriveRootFolderName == "" {
		c.Google.DriveRootFolderName = "spectral"
	}
	if c.Google.DriveRequestsPerSec == 0 {
		c.Google.DriveRequestsPerSec = 10
	}
	if c.Google.TokenRefreshSchedule == "" {
		c.Google.TokenRefreshSchedule = "@every 30m"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.Auth.RateLimit == 0 {
		// 100 запросов в час на IP
		c.Auth.RateLimit = 100.0 / 3600.0
	}
	if c.Auth.RateBurst == 0 {
		c.Auth.RateBurst = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.Path == "" {
		c.Log.Path = "./logs"
	}
}

// Проверяем, что все необходимые поля заполнены
func (c *Config) validate() error {
	if c.Database.Host == "" ||
		c.Database.Port == "" ||
		c.Database.User == "" ||
		c.Database.Password == "" ||
		c.Database.Name == "" {
		return fmt.Errorf("database configuration is incomplete: host=%s, port=%s, user=%s, name=%s",
			c.Database.Host, c.Database.Port, c.Database.User, c.Database.Name)
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return fmt.Errorf("google oauth2 credentials are missing")
	}
	if c.Auth.ValidationURL == "" {
		return fmt.Errorf("ACCESS_TOKEN_VALIDATION_URL is required")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// GetURL - строка подключения для golang-migrate
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}
