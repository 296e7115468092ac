package config

import "github.com/aws/aws-sdk-go-v2/service/s3"

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Enabled  bool   `yaml:"enabled"`
	Bucket   string `yaml:"bucket"`
	Client   *s3.Client
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Local    bool   `yaml:"local"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`
	// TokenTTL : срок жизни токена сессии, по умолчанию 168h (7 дней)
	TokenTTL string `yaml:"token_ttl"`
	// RefreshThreshold : остаток жизни, ниже которого refresh выдаёт новый токен
	RefreshThreshold string `yaml:"refresh_threshold"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type AdminConfig struct {
	AdminToken string `yaml:"admin_token"`
}

type PurgeConfig struct {
	// Interval : период запуска очистки просроченных сессий
	Interval string `yaml:"interval"`
}

type TTL struct {
	// Cache : время жизни записи сессии в Redis, секунды
	Cache int `yaml:"cache"`
}
