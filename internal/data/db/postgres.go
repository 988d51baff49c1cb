package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/env"
	"github.com/ostrakov/socialmesh-backend/internal/pkg/logger"
)

// NewPostgres opens the application database from POSTGRES_* env vars.
func NewPostgres(log *logger.Logger) (*gorm.DB, error) {
	host := env.Get("POSTGRES_HOST", "localhost", log)
	port := env.Get("POSTGRES_PORT", "5432", log)
	user := env.Get("POSTGRES_USER", "postgres", log)
	password := env.Get("POSTGRES_PASSWORD", "", log)
	name := env.Get("POSTGRES_NAME", "socialmesh", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	log.Info("connecting to postgres", "host", host, "db", name)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}
