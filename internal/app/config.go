package app

import (
	"time"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/env"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

type Config struct {
	HTTPAddr        string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RedisAddr       string
}

func LoadConfig(log *logger.Logger) Config {
	accessTTLSeconds := env.GetInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTTLSeconds := env.GetInt("REFRESH_TOKEN_TTL", 86400, log)
	return Config{
		HTTPAddr:        ":" + env.Get("PORT", "8080", log),
		JWTSecretKey:    env.Get("JWT_SECRET_KEY", "", log),
		AccessTokenTTL:  time.Duration(accessTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTTLSeconds) * time.Second,
		RedisAddr:       env.Get("REDIS_ADDR", "", log),
	}
}
