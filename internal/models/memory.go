package models

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryEmployeeModel keeps employees in a concurrent map. It follows the
// same semantics as EmployeeModel.
type MemoryEmployeeModel struct {
	rows *xsync.MapOf[uuid.UUID, Employee]
}

var _ EmployeeStore = (*MemoryEmployeeModel)(nil)

func NewMemoryEmployeeModel() *MemoryEmployeeModel {
	return &MemoryEmployeeModel{rows: xsync.NewMapOf[uuid.UUID, Employee]()}
}

func (m *MemoryEmployeeModel) Get(ctx context.Context, id uuid.UUID) (*Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	employee, ok := m.rows.Load(id)
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &employee, nil
}

func (m *MemoryEmployeeModel) List(ctx context.Context) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	employees := make([]Employee, 0, m.rows.Size())
	m.rows.Range(func(_ uuid.UUID, employee Employee) bool {
		employees = append(employees, employee)
		return true
	})

	slices.SortFunc(employees, func(a, b Employee) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return employees, nil
}

func (m *MemoryEmployeeModel) Save(ctx context.Context, employee *Employee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.rows.Store(employee.ID, *employee)
	return nil
}

func (m *MemoryEmployeeModel) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.rows.Delete(id)
	return nil
}

func (m *MemoryEmployeeModel) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.rows.Load(id)
	return ok, nil
}
