package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"insurance-prediction-service/internal/core/domain"
)

type Config struct {
	Server        ServerConfig
	Logger        LoggerConfig
	Models        ModelsConfig
	S3            S3Config
	GCS           GCSConfig
	HTTPSource    HTTPSourceConfig
	Kubernetes    KubernetesConfig
	Database      DatabaseConfig
	PredictionLog PredictionLogConfig
	CORS          CORSConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

type LoggerConfig struct {
	Level  string
	Format string
	// File enables rotating file output instead of stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ModelsConfig struct {
	DefaultVersion string
	BaseDir        string
	LoadTimeout    time.Duration
	Versions       []ModelConfig
}

type ModelConfig struct {
	Version   string
	Source    string
	Transform domain.OutputTransform
}

type S3Config struct {
	Enabled         bool
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type GCSConfig struct {
	Enabled         bool
	CredentialsJSON string
}

// HTTPSourceConfig enables http:// and https:// artifact URIs.
type HTTPSourceConfig struct {
	Enabled     bool
	Timeout     time.Duration
	BearerToken string
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	Namespace      string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type PredictionLogConfig struct {
	Enabled bool
	Timeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables, layered over configFile
// when one is given.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_MAX_BODY_BYTES", 1<<20)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("LOGGER_FILE", "")
	v.SetDefault("LOGGER_MAX_SIZE_MB", 100)
	v.SetDefault("LOGGER_MAX_BACKUPS", 5)
	v.SetDefault("LOGGER_MAX_AGE_DAYS", 28)
	v.SetDefault("MODEL_VERSIONS", "v1,v2")
	v.SetDefault("MODEL_DEFAULT_VERSION", "v1")
	v.SetDefault("MODEL_BASE_DIR", "")
	v.SetDefault("MODEL_LOAD_TIMEOUT", "60s")
	v.SetDefault("MODEL_V1_SOURCE", "artifacts/insurance_pipeline_v1.json")
	v.SetDefault("MODEL_V1_TRANSFORM", string(domain.TransformIdentity))
	v.SetDefault("MODEL_V2_SOURCE", "artifacts/insurance_pipeline_v2.yaml")
	v.SetDefault("MODEL_V2_TRANSFORM", string(domain.TransformExpm1))
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("GCS_ENABLED", false)
	v.SetDefault("HTTP_SOURCE_ENABLED", false)
	v.SetDefault("HTTP_SOURCE_TIMEOUT", "30s")
	v.SetDefault("KUBERNETES_ENABLED", false)
	v.SetDefault("KUBERNETES_IN_CLUSTER", false)
	v.SetDefault("KUBERNETES_NAMESPACE", "default")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_NAME", "insurance")
	v.SetDefault("DATABASE_SSL_MODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("PREDICTION_LOG_ENABLED", false)
	v.SetDefault("PREDICTION_LOG_TIMEOUT", "2s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// Env
	v.AutomaticEnv()

	versions := splitList(v.GetString("MODEL_VERSIONS"))
	models := make([]ModelConfig, 0, len(versions))
	for _, version := range versions {
		prefix := "MODEL_" + envKey(version)
		source := v.GetString(prefix + "_SOURCE")
		if source == "" {
			source = fmt.Sprintf("artifacts/insurance_pipeline_%s.json", version)
		}
		transform, err := domain.ParseOutputTransform(v.GetString(prefix + "_TRANSFORM"))
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", version, err)
		}
		models = append(models, ModelConfig{Version: version, Source: source, Transform: transform})
	}

	defaultVersion := v.GetString("MODEL_DEFAULT_VERSION")
	if len(models) > 0 && !containsVersion(models, defaultVersion) {
		return nil, fmt.Errorf("default model version %q is not in MODEL_VERSIONS", defaultVersion)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  parseDuration(v.GetString("SERVER_READ_TIMEOUT"), 15*time.Second),
			WriteTimeout: parseDuration(v.GetString("SERVER_WRITE_TIMEOUT"), 30*time.Second),
			MaxBodyBytes: v.GetInt64("SERVER_MAX_BODY_BYTES"),
		},
		Logger: LoggerConfig{
			Level:      v.GetString("LOGGER_LEVEL"),
			Format:     v.GetString("LOGGER_FORMAT"),
			File:       v.GetString("LOGGER_FILE"),
			MaxSizeMB:  v.GetInt("LOGGER_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOGGER_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOGGER_MAX_AGE_DAYS"),
		},
		Models: ModelsConfig{
			DefaultVersion: defaultVersion,
			BaseDir:        v.GetString("MODEL_BASE_DIR"),
			LoadTimeout:    parseDuration(v.GetString("MODEL_LOAD_TIMEOUT"), time.Minute),
			Versions:       models,
		},
		S3: S3Config{
			Enabled:         v.GetBool("S3_ENABLED"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		},
		GCS: GCSConfig{
			Enabled:         v.GetBool("GCS_ENABLED"),
			CredentialsJSON: v.GetString("GCS_CREDENTIALS_JSON"),
		},
		HTTPSource: HTTPSourceConfig{
			Enabled:     v.GetBool("HTTP_SOURCE_ENABLED"),
			Timeout:     parseDuration(v.GetString("HTTP_SOURCE_TIMEOUT"), 30*time.Second),
			BearerToken: v.GetString("HTTP_SOURCE_BEARER_TOKEN"),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("KUBERNETES_ENABLED"),
			InCluster:      v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KUBERNETES_KUBECONFIG"),
			Namespace:      v.GetString("KUBERNETES_NAMESPACE"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSL_MODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		PredictionLog: PredictionLogConfig{
			Enabled: v.GetBool("PREDICTION_LOG_ENABLED"),
			Timeout: parseDuration(v.GetString("PREDICTION_LOG_TIMEOUT"), 2*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// splitList splits a comma separated list, dropping blanks and duplicates.
func splitList(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func envKey(version string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(version))
}

func containsVersion(models []ModelConfig, version string) bool {
	for _, m := range models {
		if m.Version == version {
			return true
		}
	}
	return false
}
