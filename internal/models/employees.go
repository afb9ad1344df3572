package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/yyvfuruta/employees/internal/validator"
)

type Employee struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position string    `json:"position"`
	Salary   float64   `json:"salary"`
	HireDate Date      `json:"hireDate"`
}

func ValidateEmployee(v *validator.Validator, employee *Employee) {
	v.Check(employee.Name != "", "name", "must be provided")

	v.Check(employee.Position != "", "position", "must be provided")

	v.Check(employee.Salary > 0, "salary", "must be greater than zero")

	v.Check(!employee.HireDate.IsZero(), "hireDate", "must be provided")
}

type EmployeeModel struct {
	DB *sql.DB
}

var _ EmployeeStore = EmployeeModel{}

func (e EmployeeModel) Get(ctx context.Context, id uuid.UUID) (*Employee, error) {
	employee := &Employee{}
	row := e.DB.QueryRowContext(
		ctx,
		`SELECT id, name, position, salary, hire_date FROM employees WHERE id = $1`,
		id,
	)
	err := row.Scan(&employee.ID, &employee.Name, &employee.Position, &employee.Salary, &employee.HireDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return employee, nil
}

func (e EmployeeModel) List(ctx context.Context) ([]Employee, error) {
	rows, err := e.DB.QueryContext(
		ctx,
		`SELECT id, name, position, salary, hire_date FROM employees ORDER BY name, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []Employee{}
	for rows.Next() {
		var employee Employee
		err = rows.Scan(&employee.ID, &employee.Name, &employee.Position, &employee.Salary, &employee.HireDate)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	return employees, rows.Err()
}

// Save inserts the employee or replaces the row with the same id.
func (e EmployeeModel) Save(ctx context.Context, employee *Employee) error {
	_, err := e.DB.ExecContext(
		ctx,
		`INSERT INTO employees (id, name, position, salary, hire_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            position = EXCLUDED.position,
            salary = EXCLUDED.salary,
            hire_date = EXCLUDED.hire_date`,
		employee.ID,
		employee.Name,
		employee.Position,
		employee.Salary,
		employee.HireDate,
	)
	return err
}

func (e EmployeeModel) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := e.DB.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	return err
}

func (e EmployeeModel) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := e.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}
