package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when a lookup by id matches nothing.
var ErrRecordNotFound = errors.New("record not found")

// EmployeeStore is the persistence contract of the domain tier.
type EmployeeStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Save(ctx context.Context, employee *Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Models struct {
	Employee EmployeeStore
}

func NewModels(db *sql.DB) Models {
	return Models{
		Employee: EmployeeModel{DB: db},
	}
}

// NewMemoryModels returns Models backed by process memory.
func NewMemoryModels() Models {
	return Models{
		Employee: NewMemoryEmployeeModel(),
	}
}
