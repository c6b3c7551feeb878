package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

// DBService holds both handles to the same database: *sql.DB for the
// repositories and a pgx pool for the read-heavy insights queries.
type DBService struct {
	DB   *sql.DB
	Pool *pgxpool.Pool
}

// NewDBService opens the connections and pings the database.
func NewDBService(ctx context.Context, connStr string) (*DBService, error) {
	if connStr == "" {
		return nil, fmt.Errorf("missing DB_CONNECTION_STRING in environment variables")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}

	return &DBService{DB: db, Pool: pool}, nil
}

// Health checks the health of the database connection by pinging the database.
func (s *DBService) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)

	if err := s.DB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	return stats
}

func (s *DBService) Close() error {
	log.Info().Msg("Closing database connection")
	if s.Pool != nil {
		s.Pool.Close()
	}
	return s.DB.Close()
}
