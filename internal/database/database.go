// Package database provides a function for connecting to the database.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yyvfuruta/employees/internal/env"
)

func NewConnection() (*sql.DB, error) {
	vars, err := env.Require("DB_HOST", "DB_PORT", "DB_USER_NAME", "DB_USER_PASS", "DB_NAME")
	if err != nil {
		return nil, err
	}

	sslMode := env.String("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		vars["DB_HOST"], vars["DB_PORT"], vars["DB_USER_NAME"], vars["DB_USER_PASS"], vars["DB_NAME"], sslMode,
	)

	c, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := c.Ping(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			position TEXT NOT NULL,
			salary DOUBLE PRECISION NOT NULL,
			hire_date DATE NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
