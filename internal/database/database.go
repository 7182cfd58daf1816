package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DB struct {
	*sqlx.DB
}

func New(dsn string) (*DB, error) {
	// Add connection timeout if not present
	if !strings.Contains(dsn, "connect_timeout") {
		if strings.Contains(dsn, "?") {
			dsn += "&connect_timeout=10"
		} else {
			dsn += "?connect_timeout=10"
		}
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) RunMigrations() error {
	// Migration files to run in order
	migrations := []string{
		"001_scouts.sql",
		"002_runs.sql",
		"003_payments.sql",
		"004_operators.sql",
	}

	cwd, _ := os.Getwd()

	basePaths := []string{
		"migrations/",
		"backend/migrations/",
		"../migrations/",
		filepath.Join(filepath.Dir(os.Args[0]), "migrations/"),
		filepath.Join(cwd, "migrations/"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	appliedCount := 0
	for _, migration := range migrations {
		var migrationSQL []byte
		var err error
		var foundPath string

		for _, basePath := range basePaths {
			fullPath := basePath + migration
			migrationSQL, err = os.ReadFile(fullPath)
			if err == nil {
				foundPath = fullPath
				break
			}
		}
		if err != nil {
			// Might be deployed without migration files
			fmt.Printf("Warning: Migration file not found: %s (cwd: %s)\n", migration, cwd)
			continue
		}

		if _, err := db.ExecContext(ctx, string(migrationSQL)); err != nil {
			// Ignore errors from already-applied migrations
			if !strings.Contains(err.Error(), "already exists") &&
				!strings.Contains(err.Error(), "duplicate") {
				return fmt.Errorf("failed to run migration %s: %w", migration, err)
			}
		} else {
			fmt.Printf("Applied migration: %s (from %s)\n", migration, foundPath)
			appliedCount++
		}
	}

	if appliedCount > 0 {
		fmt.Printf("Applied %d migrations\n", appliedCount)
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
