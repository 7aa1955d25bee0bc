// Package config loads service settings from the environment and opens the backing
// connections.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	DBName        string `mapstructure:"DB_NAME"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`

	ZeptoAPIURL string `mapstructure:"ZEPTO_API_URL"`
	ZeptoAPIKey string `mapstructure:"ZEPTO_API_KEY"`
	EmailFrom   string `mapstructure:"EMAIL_FROM"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	CORSOrigins      string `mapstructure:"CORS_ORIGINS"`
	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`
}

var keys = []string{
	"PORT", "MONGO_URI", "DB_NAME", "JWT_SECRET", "TOKEN_TTL_HOURS",
	"REDIS_URL", "RABBITMQ_URL", "EVENTS_EXCHANGE",
	"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET",
	"ZEPTO_API_URL", "ZEPTO_API_KEY", "EMAIL_FROM",
	"ADMIN_EMAIL", "ADMIN_PASSWORD",
	"CORS_ORIGINS", "REMINDER_SCHEDULE",
}

// LoadConfig reads a local .env if present, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_NAME", "donations")
	viper.SetDefault("TOKEN_TTL_HOURS", 24)
	viper.SetDefault("EVENTS_EXCHANGE", "donations.events")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	viper.SetDefault("REMINDER_SCHEDULE", "0 9 * * *") // 09:00 every day
	viper.AutomaticEnv()

	for _, k := range keys {
		_ = viper.BindEnv(k)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.MongoURI) == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
