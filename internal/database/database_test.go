package database

import (
	"strings"
	"testing"
)

func TestNewConnection_MissingEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER_NAME", "")
	t.Setenv("DB_USER_PASS", "secret")
	t.Setenv("DB_NAME", "employees")

	_, err := NewConnection()
	if err == nil || !strings.Contains(err.Error(), "DB_USER_NAME environment variable not set") {
		t.Fatalf("expected missing DB_USER_NAME, got %v", err)
	}
}
