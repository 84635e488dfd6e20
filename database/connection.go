// Package database holds the Postgres repositories and an in-memory
// stand-in used for development and tests. Repositories are explicit:
// each one carries its own storage handle, there is no ambient
// connection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// NewConnection opens and pings a Postgres connection with the pool
// limits used across the service.
func NewConnection(log zerolog.Logger, dbName, dbHost, dbPort, dbUsername, dbPassword string) (*sql.DB, error) {
	connURL := buildConnURL(dbName, dbHost, dbPort, dbUsername, dbPassword)
	log.Debug().Str("host", dbHost).Str("port", dbPort).Str("db", dbName).Msg("opening database connection")

	dbConn, err := sql.Open("pgx", connURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	dbConn.SetMaxOpenConns(30)
	dbConn.SetMaxIdleConns(10)
	dbConn.SetConnMaxIdleTime(1 * time.Minute)
	dbConn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	log.Info().Str("host", dbHost).Str("db", dbName).Msg("database connection established")
	return dbConn, nil
}

func buildConnURL(dbName, dbHost, dbPort, dbUsername, dbPassword string) string {
	dbConnURL := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dbUsername, dbPassword),
		Host:   net.JoinHostPort(dbHost, dbPort),
		Path:   dbName,
	}
	dbConnQuery := dbConnURL.Query()
	dbConnQuery.Set("sslmode", "disable")
	dbConnURL.RawQuery = dbConnQuery.Encode()
	return dbConnURL.String()
}
