package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr        string
	DatabaseDSN       string
	SigningKey        []byte
	AllowedOrigins    []string
	RedisAddr         string
	QueryTimeout      time.Duration
	PresenceTTL       time.Duration
	MarkReadOnFetch   bool
	NotificationLimit int
}

// Load builds the configuration from defaults, an optional config file
// and CAMPUS_CHAT_* environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", "localhost:8000")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("presence.redis_addr", "")
	v.SetDefault("presence.ttl", "90s")
	v.SetDefault("chat.mark_read_on_fetch", true)
	v.SetDefault("chat.notification_limit", 50)

	v.SetEnvPrefix("CAMPUS_CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return NewConfig(
		v.GetString("server.addr"),
		v.GetString("database.dsn"),
		v.GetString("auth.signing_key"),
		v.GetStringSlice("server.allowed_origins"),
		v.GetString("presence.redis_addr"),
		v.GetDuration("database.query_timeout"),
		v.GetDuration("presence.ttl"),
		v.GetBool("chat.mark_read_on_fetch"),
		v.GetInt("chat.notification_limit"),
	)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string,
	redisAddr string, queryTimeout, presenceTTL time.Duration, markReadOnFetch bool, notificationLimit int) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	if presenceTTL <= 0 {
		presenceTTL = 90 * time.Second
	}
	if notificationLimit <= 0 {
		notificationLimit = 50
	}

	return &Config{
		ServerAddr:        serverAddr,
		DatabaseDSN:       databaseDSN,
		SigningKey:        signingKey,
		AllowedOrigins:    allowedOrigins,
		RedisAddr:         redisAddr,
		QueryTimeout:      queryTimeout,
		PresenceTTL:       presenceTTL,
		MarkReadOnFetch:   markReadOnFetch,
		NotificationLimit: notificationLimit,
	}, nil
}
