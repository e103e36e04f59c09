package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/store-backoffice/internal/config"
)

const pingTimeout = 5 * time.Second

// pool holds the connection pool limits applied to a *sql.DB.
type pool struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// poolFor fills unset limits with defaults and keeps the idle
// pool no larger than the open pool.
func poolFor(cfg *config.DatabaseConfig) pool {
	p := pool{
		maxOpen:     cfg.MaxOpenConns,
		maxIdle:     cfg.MaxIdleConns,
		maxLifetime: cfg.ConnMaxLifetime,
	}
	if p.maxOpen <= 0 {
		p.maxOpen = 25
	}
	if p.maxIdle <= 0 {
		p.maxIdle = 5
	}
	if p.maxIdle > p.maxOpen {
		p.maxIdle = p.maxOpen
	}
	if p.maxLifetime <= 0 {
		p.maxLifetime = 5 * time.Minute
	}
	return p
}

func (p pool) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)
}

// NewConnection opens the PostgreSQL pool and waits for the server to answer.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	poolFor(cfg).apply(db)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
