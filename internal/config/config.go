package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv          string
	AppPort         string
	ShutdownTimeout time.Duration

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	NatsURL string

	JWTPublicKeyPath string

	GuestSessionTTL  time.Duration
	GuestRatePerMin  int
	ClientProfileURL string
	IdentityCacheTTL time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("app_env", "production")
	v.SetDefault("app_port", "8085")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("mongo_db", "chat")
	v.SetDefault("kafka_topic", "chat.messages")
	v.SetDefault("kafka_group_id", "chat-service")
	v.SetDefault("guest_session_ttl", "12h")
	v.SetDefault("guest_rate_per_min", 5)
	v.SetDefault("identity_cache_ttl", "5m")

	if err := v.ReadInConfig(); err != nil {
		// env-only deployments run without a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		AppEnv:          v.GetString("app_env"),
		AppPort:         v.GetString("app_port"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),

		MongoURI: v.GetString("mongo_uri"),
		MongoDB:  v.GetString("mongo_db"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		KafkaBrokers: v.GetStringSlice("kafka_brokers"),
		KafkaTopic:   v.GetString("kafka_topic"),
		KafkaGroupID: v.GetString("kafka_group_id"),

		NatsURL: v.GetString("nats_url"),

		JWTPublicKeyPath: v.GetString("jwt_public_key_path"),

		GuestSessionTTL:  v.GetDuration("guest_session_ttl"),
		GuestRatePerMin:  v.GetInt("guest_rate_per_min"),
		ClientProfileURL: v.GetString("client_profile_url"),
		IdentityCacheTTL: v.GetDuration("identity_cache_ttl"),
	}, nil
}
