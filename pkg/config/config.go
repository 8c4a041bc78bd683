package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	Storage StorageConfig
	Redis   RedisConfig
	Images  ImagesConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env         string // development, staging, production
	Name        string
	Version     string
	LogLevel    string
	CORSOrigins []string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig almacenamiento de objetos S3 compatible (MinIO).
// PublicEndpoint es el host:puerto con el que los clientes (app móvil) leen las imágenes.
type StorageConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	Region         string
}

// Scheme http o https según UseSSL.
func (c StorageConfig) Scheme() string {
	if c.UseSSL {
		return "https"
	}
	return "http"
}

// RedisConfig conexión a Redis. QueueURL (BULLMQ_REDIS_URL) cae en URL si está vacío.
type RedisConfig struct {
	URL      string
	QueueURL string
}

// QueueConnectionString URL a usar para la cola de trabajos.
func (c RedisConfig) QueueConnectionString() string {
	if c.QueueURL != "" {
		return c.QueueURL
	}
	return c.URL
}

// ImagesConfig pipeline de imágenes.
type ImagesConfig struct {
	Workers             int   // tamaño del pool de decodificación/subida
	MaxBytes            int64 // tamaño máximo aceptado por upload o descarga
	MaxPixels           int64 // ancho*alto máximo antes de decodificar
	FetchTimeoutSeconds int
	Queue               string // nombre de la cola de importación
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DATABASE_URL, MINIO_ENDPOINT, REDIS_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	minioEndpoint := getString(v, "MINIO_ENDPOINT", "localhost:9000")
	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "makiti-market-api"),
			Version:     getString(v, "APP_VERSION", "0.1.0"),
			LogLevel:    strings.ToLower(getString(v, "LOG_LEVEL", "info")),
			CORSOrigins: splitList(getString(v, "CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "makiti"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "makiti_db"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8000),
		},
		Storage: StorageConfig{
			Endpoint:       minioEndpoint,
			PublicEndpoint: getString(v, "MINIO_PUBLIC_ENDPOINT", minioEndpoint),
			AccessKey:      getString(v, "MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:      getString(v, "MINIO_SECRET_KEY", "minioadmin123"),
			Bucket:         getString(v, "MINIO_BUCKET_NAME", "products"),
			UseSSL:         getBool(v, "MINIO_USE_SSL", false),
			Region:         getString(v, "MINIO_REGION", ""),
		},
		Redis: RedisConfig{
			URL:      getString(v, "REDIS_URL", "redis://localhost:6379/0"),
			QueueURL: getString(v, "BULLMQ_REDIS_URL", ""),
		},
		Images: ImagesConfig{
			Workers:             getInt(v, "IMAGE_WORKERS", 4),
			MaxBytes:            int64(getInt(v, "IMAGE_MAX_BYTES", 10<<20)),
			MaxPixels:           int64(getInt(v, "IMAGE_MAX_PIXELS", 89_478_485)),
			FetchTimeoutSeconds: getInt(v, "IMAGE_FETCH_TIMEOUT_SECONDS", 30),
			Queue:               getString(v, "IMAGE_QUEUE", "images"),
		},
	}

	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("MINIO_BUCKET_NAME vacío")
	}
	if cfg.Images.Workers <= 0 {
		cfg.Images.Workers = 1
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
