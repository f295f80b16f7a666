package database

import (
	"context"
	"database/sql"
	"time"
)

const defaultQueryTimeout = 5 * time.Second

type PgCampusChatRepository struct {
	conn         *sql.DB
	queryTimeout time.Duration
}

func NewPgCampusChatRepository(dsn string, queryTimeout time.Duration) (*PgCampusChatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &PgCampusChatRepository{conn: db, queryTimeout: queryTimeout}, nil
}

// queryCtx bounds every repository call so a stalled database surfaces as
// a timeout to the caller instead of a hang.
func (db *PgCampusChatRepository) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

func (db *PgCampusChatRepository) Ping(ctx context.Context) error {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

func (db *PgCampusChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
